// Package sqlite provides a SQLite-backed implementation of the history port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

// Adapter implements the history port for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.HistoryRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local dev
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Save stores entry and its tracks in one transaction.
func (a *Adapter) Save(ctx context.Context, entry domain.HistoryEntry) error {
	if entry.ID == "" {
		return errors.New("sqlite: history entry without id")
	}
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to encode prediction result: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recommendations (id, source, label, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			label = excluded.label,
			result = excluded.result,
			created_at = excluded.created_at
	`, entry.ID, entry.Source, entry.Label, string(result), entry.CreatedAt.UTC().UnixNano()); err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recommendation_tracks WHERE recommendation_id = ?", entry.ID); err != nil {
		return fmt.Errorf("failed to reset recommendation tracks: %w", err)
	}
	for i, track := range entry.Tracks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recommendation_tracks (recommendation_id, position, track_id, name, artist, album, cover_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, i, track.ID, track.Name, track.Artist, nullString(track.Album), nullString(track.CoverURL)); err != nil {
			return fmt.Errorf("failed to save recommendation track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendation: %w", err)
	}
	return nil
}

// Recent returns at most limit entries, newest first.
func (a *Adapter) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, source, label, result, created_at
		FROM recommendations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}
	// Release the single connection before loading tracks.
	rows.Close()

	for i := range entries {
		tracks, err := a.loadTracks(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Tracks = tracks
	}
	return entries, nil
}

// GetByID loads one entry.
func (a *Adapter) GetByID(ctx context.Context, id string) (domain.HistoryEntry, error) {
	row := a.db.QueryRowContext(ctx, "SELECT id, source, label, result, created_at FROM recommendations WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, err
	}
	tracks, err := a.loadTracks(ctx, id)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	entry.Tracks = tracks
	return entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.HistoryEntry, error) {
	var (
		entry     domain.HistoryEntry
		result    sql.NullString
		createdAt int64
	)
	if err := s.Scan(&entry.ID, &entry.Source, &entry.Label, &result, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HistoryEntry{}, err
		}
		return domain.HistoryEntry{}, fmt.Errorf("failed to scan recommendation: %w", err)
	}
	if result.Valid && result.String != "" && result.String != "null" {
		if err := json.Unmarshal([]byte(result.String), &entry.Result); err != nil {
			return domain.HistoryEntry{}, fmt.Errorf("failed to decode prediction result: %w", err)
		}
	}
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	return entry, nil
}

func (a *Adapter) loadTracks(ctx context.Context, id string) ([]domain.Track, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT track_id, name, artist, IFNULL(album, ''), IFNULL(cover_url, '')
		FROM recommendation_tracks
		WHERE recommendation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation tracks: %w", err)
	}
	defer rows.Close()

	tracks := []domain.Track{}
	for rows.Next() {
		var track domain.Track
		if err := rows.Scan(&track.ID, &track.Name, &track.Artist, &track.Album, &track.CoverURL); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendation tracks: %w", err)
	}
	return tracks, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		label TEXT NOT NULL,
		result TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recommendation_tracks (
		recommendation_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		track_id TEXT NOT NULL,
		name TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		cover_url TEXT,
		PRIMARY KEY (recommendation_id, position),
		FOREIGN KEY(recommendation_id) REFERENCES recommendations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	// Databases created before the cover column existed.
	if _, err := a.db.Exec("ALTER TABLE recommendation_tracks ADD COLUMN cover_url TEXT"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}
	return nil
}

func isDuplicateColumnError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
