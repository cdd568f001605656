package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// HistoryRepository stores completed recommendations.
type HistoryRepository interface {
	Save(ctx context.Context, entry domain.HistoryEntry) error
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	// GetByID returns domain.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (domain.HistoryEntry, error)
}
