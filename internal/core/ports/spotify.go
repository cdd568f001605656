package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// TokenProvider hands out a valid catalog credential.
type TokenProvider interface {
	Token(ctx context.Context) (domain.Credential, error)
}

// CatalogSearcher finds tracks matching an emotion label.
// An empty result is not an error.
type CatalogSearcher interface {
	SearchByEmotion(ctx context.Context, label string) ([]domain.Track, error)
}
