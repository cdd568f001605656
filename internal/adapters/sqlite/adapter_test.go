package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func entryAt(id, label string, at time.Time, tracks ...domain.Track) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:        id,
		Source:    domain.SourceCapture,
		Label:     label,
		Result:    domain.PredictionResult{"cnn": label, "majority": label},
		Tracks:    tracks,
		CreatedAt: at,
	}
}

func TestAdapter_GetByID(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setup      func(t *testing.T, a *Adapter) string
		wantErr    error
		wantLabel  string
		wantTracks int
	}{
		{
			name: "not found",
			setup: func(t *testing.T, a *Adapter) string {
				return "missing"
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "returns entry with tracks",
			setup: func(t *testing.T, a *Adapter) string {
				e := entryAt("h-1", "happiness", base,
					domain.Track{ID: "t1", Name: "Song One", Artist: "Artist A, Artist B", Album: "Album A", CoverURL: "https://img.test/1.jpg"},
					domain.Track{ID: "t2", Name: "Song Two", Artist: "Artist C"},
				)
				if err := a.Save(context.Background(), e); err != nil {
					t.Fatalf("save entry: %v", err)
				}
				return e.ID
			},
			wantLabel:  "happiness",
			wantTracks: 2,
		},
		{
			name: "returns entry without tracks",
			setup: func(t *testing.T, a *Adapter) string {
				e := entryAt("h-2", "neutral", base)
				e.Result = nil
				if err := a.Save(context.Background(), e); err != nil {
					t.Fatalf("save entry: %v", err)
				}
				return e.ID
			},
			wantLabel: "neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t)

			id := tt.setup(t, a)
			got, err := a.GetByID(context.Background(), id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != id || got.Label != tt.wantLabel {
				t.Fatalf("unexpected entry: %+v", got)
			}
			if !got.CreatedAt.Equal(base) {
				t.Fatalf("created_at: got %v, want %v", got.CreatedAt, base)
			}
			if len(got.Tracks) != tt.wantTracks {
				t.Fatalf("tracks: got %d, want %d", len(got.Tracks), tt.wantTracks)
			}
			if tt.wantTracks > 0 {
				first := got.Tracks[0]
				if first.ID != "t1" || first.Artist != "Artist A, Artist B" || first.CoverURL != "https://img.test/1.jpg" {
					t.Fatalf("track fields not populated in order: %+v", first)
				}
				if got.Result["majority"] != tt.wantLabel {
					t.Fatalf("result not restored: %v", got.Result)
				}
			}
		})
	}
}

func TestAdapter_Recent(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, label := range []string{"anger", "sadness", "happiness"} {
		e := entryAt(label, label, base.Add(time.Duration(i)*time.Minute), domain.Track{ID: "t-" + label, Name: label, Artist: "x"})
		if err := a.Save(ctx, e); err != nil {
			t.Fatalf("save %s: %v", label, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "newest first", limit: 10, want: []string{"happiness", "sadness", "anger"}},
		{name: "limited", limit: 2, want: []string{"happiness", "sadness"}},
		{name: "zero limit", limit: 0, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Recent(ctx, tt.limit)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("entries: got %d, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Label != tt.want[i] {
					t.Fatalf("entry %d: got %q, want %q", i, e.Label, tt.want[i])
				}
				if len(e.Tracks) != 1 {
					t.Fatalf("entry %d: tracks %d, want 1", i, len(e.Tracks))
				}
			}
		})
	}
}

func TestAdapter_SaveReplacesTracks(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := a.Save(ctx, entryAt("h-1", "anger", now, domain.Track{ID: "a"}, domain.Track{ID: "b"})); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := a.Save(ctx, entryAt("h-1", "anger", now, domain.Track{ID: "c"})); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := a.GetByID(ctx, "h-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].ID != "c" {
		t.Fatalf("tracks not replaced: %+v", got.Tracks)
	}
}

func TestAdapter_SaveRequiresID(t *testing.T) {
	a := newTestAdapter(t)
	if err := a.Save(context.Background(), domain.HistoryEntry{Label: "anger"}); err == nil {
		t.Fatalf("expected error for entry without id")
	}
}

func TestAdapter_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	a, err := NewAdapter(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.Save(context.Background(), entryAt("h-1", "surprise", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := NewAdapter(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	if _, err := b.GetByID(context.Background(), "h-1"); err != nil {
		t.Fatalf("entry lost after reopen: %v", err)
	}
}
