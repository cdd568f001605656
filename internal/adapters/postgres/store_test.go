package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	s, err := NewStore(context.Background(), url)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStore_RequiresURL(t *testing.T) {
	if _, err := NewStore(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty database url")
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		Source:    domain.SourceFile,
		Label:     "sadness",
		Result:    domain.PredictionResult{"cnn": "sadness", "majority": "sadness"},
		Tracks:    []domain.Track{{ID: "t1", Name: "Up", Artist: "A, B", Album: "Lift"}},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.Save(ctx, entry); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Label != entry.Label || got.Result["majority"] != "sadness" {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].Artist != "A, B" {
		t.Fatalf("tracks not restored: %+v", got.Tracks)
	}
	if !got.CreatedAt.Equal(entry.CreatedAt) {
		t.Fatalf("created_at: got %v, want %v", got.CreatedAt, entry.CreatedAt)
	}

	recent, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent: got %d, want 1", len(recent))
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetByID(context.Background(), uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
