// Package postgres provides a PostgreSQL-backed implementation of the history
// port.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

// Store keeps recommendation history in a single table with JSONB payloads.
type Store struct {
	pool *pgxpool.Pool
}

var _ ports.HistoryRepository = (*Store)(nil)

// NewStore connects to databaseURL and creates the schema when missing.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, errors.New("postgres: database url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			label TEXT NOT NULL,
			result JSONB NOT NULL DEFAULT '{}'::jsonb,
			tracks JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations (created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init history schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Save upserts entry.
func (s *Store) Save(ctx context.Context, entry domain.HistoryEntry) error {
	if entry.ID == "" {
		return errors.New("postgres: history entry without id")
	}
	result := entry.Result
	if result == nil {
		result = domain.PredictionResult{}
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	tracks := entry.Tracks
	if tracks == nil {
		tracks = []domain.Track{}
	}
	tracksJSON, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("encode tracks: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO recommendations (id, source, label, result, tracks, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			source=EXCLUDED.source,
			label=EXCLUDED.label,
			result=EXCLUDED.result,
			tracks=EXCLUDED.tracks,
			created_at=EXCLUDED.created_at`,
		entry.ID,
		entry.Source,
		entry.Label,
		string(resultJSON),
		string(tracksJSON),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert recommendation: %w", err)
	}
	return nil
}

// Recent returns at most limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, label, result, tracks, created_at
		   FROM recommendations ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.HistoryEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return out, nil
}

// GetByID loads one entry.
func (s *Store) GetByID(ctx context.Context, id string) (domain.HistoryEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, label, result, tracks, created_at FROM recommendations WHERE id=$1`,
		id,
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

func scanEntry(row pgx.Row) (domain.HistoryEntry, error) {
	var (
		entry      domain.HistoryEntry
		resultJSON []byte
		tracksJSON []byte
	)
	if err := row.Scan(&entry.ID, &entry.Source, &entry.Label, &resultJSON, &tracksJSON, &entry.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HistoryEntry{}, err
		}
		return domain.HistoryEntry{}, fmt.Errorf("scan recommendation: %w", err)
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &entry.Result); err != nil {
			return domain.HistoryEntry{}, fmt.Errorf("decode result: %w", err)
		}
		if len(entry.Result) == 0 {
			entry.Result = nil
		}
	}
	entry.Tracks = []domain.Track{}
	if len(tracksJSON) > 0 {
		if err := json.Unmarshal(tracksJSON, &entry.Tracks); err != nil {
			return domain.HistoryEntry{}, fmt.Errorf("decode tracks: %w", err)
		}
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return entry, nil
}
