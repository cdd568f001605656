package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// AudioDevice grants access to a microphone.
type AudioDevice interface {
	// Open acquires the device. The returned stream holds the hardware lock
	// until Release is called.
	Open(ctx context.Context) (AudioStream, error)
}

// AudioStream is an event-driven recorder bound to an acquired device.
type AudioStream interface {
	// Start begins recording. onData is invoked for every chunk the device
	// produces; onStop is invoked once after recording ended, either because
	// Stop was called or because the device stopped by itself.
	Start(onData func(chunk []byte), onStop func(err error)) error
	// Stop signals the device to stop. Completion is reported via onStop.
	Stop()
	// Release frees the device. It must not block on callbacks.
	Release() error
}

// CaptureDone receives the outcome of a capture session: either a finished
// artifact or the error that failed the session.
type CaptureDone func(artifact domain.AudioArtifact, err error)

// CaptureSession is a single start/stop recording lifecycle.
type CaptureSession interface {
	Start(ctx context.Context) error
	Stop() error
	Close() error
	State() domain.CaptureState
}

// Recorder creates capture sessions.
type Recorder interface {
	NewSession(done CaptureDone) CaptureSession
}
