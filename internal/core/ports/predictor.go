package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// Predictor submits an audio artifact to the emotion prediction backend.
type Predictor interface {
	Upload(ctx context.Context, artifact domain.AudioArtifact) (domain.PredictionResult, error)
}
