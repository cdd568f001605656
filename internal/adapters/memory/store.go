// Package memory provides an in-process history store for local use and
// tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

// DefaultCapacity bounds the number of entries kept.
const DefaultCapacity = 200

// Store keeps the most recent entries in insertion order.
type Store struct {
	mu       sync.RWMutex
	capacity int
	entries  []domain.HistoryEntry
}

var _ ports.HistoryRepository = (*Store)(nil)

// NewStore returns a store holding at most capacity entries.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

func (s *Store) Save(_ context.Context, entry domain.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry = clone(entry)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == entry.ID {
			s.entries[i] = entry
			return nil
		}
	}
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.capacity; over > 0 {
		s.entries = slices.Delete(s.entries, 0, over)
	}
	return nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]domain.HistoryEntry, 0, limit)
	for i := len(s.entries) - 1; i >= len(s.entries)-limit; i-- {
		out = append(out, clone(s.entries[i]))
	}
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return clone(e), nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrNotFound
}

func (s *Store) Close() error { return nil }

func clone(e domain.HistoryEntry) domain.HistoryEntry {
	e.Result = maps.Clone(e.Result)
	e.Tracks = slices.Clone(e.Tracks)
	if e.Tracks == nil {
		e.Tracks = []domain.Track{}
	}
	return e
}
