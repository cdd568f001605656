package services

import (
	"maps"
	"slices"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// Status is the coarse phase shown to the user.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusResults Status = "results"
)

// State is the observable session state. Values handed out by the
// Orchestrator are copies and safe to keep.
type State struct {
	Status     Status                  `json:"status"`
	Generation uint64                  `json:"generation"`
	Capture    domain.CaptureState     `json:"capture"`
	Source     string                  `json:"source,omitempty"`
	Label      string                  `json:"label,omitempty"`
	Mood       string                  `json:"mood,omitempty"`
	Result     domain.PredictionResult `json:"result,omitempty"`
	Tracks     []domain.Track          `json:"tracks"`
	Err        string                  `json:"error,omitempty"`
}

func idleState(generation uint64) State {
	return State{
		Status:     StatusIdle,
		Generation: generation,
		Capture:    domain.CaptureIdle,
		Tracks:     []domain.Track{},
	}
}

func (s State) clone() State {
	out := s
	out.Result = maps.Clone(s.Result)
	out.Tracks = slices.Clone(s.Tracks)
	if out.Tracks == nil {
		out.Tracks = []domain.Track{}
	}
	return out
}
