package domain

import "time"

// HistoryEntry records one completed recommendation. Audio is never stored.
type HistoryEntry struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	Label     string           `json:"label"`
	Result    PredictionResult `json:"result,omitempty"`
	Tracks    []Track          `json:"tracks"`
	CreatedAt time.Time        `json:"created_at"`
}
