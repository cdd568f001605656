// Package capture implements the microphone recording lifecycle as an explicit
// state machine driven by device callbacks.
package capture

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

// DefaultMinDuration is the shortest recording handed to the encoder.
// Near-empty recordings are rejected by some encoders.
const DefaultMinDuration = time.Second

// Encoder turns the concatenated device chunks into the artifact payload.
type Encoder func(raw []byte) ([]byte, error)

// StopTimer is the part of *time.Timer the session needs.
type StopTimer interface {
	Stop() bool
}

// Session is one start/stop recording. Idle is the initial state, finished
// and failed are terminal.
type Session struct {
	device      ports.AudioDevice
	done        ports.CaptureDone
	minDuration time.Duration
	encode      Encoder
	mimeType    string
	durationOf  func(raw []byte) time.Duration
	now         func() time.Time
	afterFunc   func(d time.Duration, f func()) StopTimer

	mu        sync.Mutex
	state     domain.CaptureState
	acquiring bool
	closed    bool
	stream    ports.AudioStream
	chunks    [][]byte
	startedAt time.Time
	timer     StopTimer
	err       error
}

var _ ports.CaptureSession = (*Session)(nil)

// State returns the current lifecycle state.
func (s *Session) State() domain.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start acquires the device and begins buffering chunks.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != domain.CaptureIdle || s.acquiring || s.closed {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", domain.ErrInvalidTransition, state)
	}
	s.acquiring = true
	s.mu.Unlock()

	stream, err := s.device.Open(ctx)

	s.mu.Lock()
	s.acquiring = false
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
		s.fail(err)
		s.mu.Unlock()
		return err
	}
	if s.closed {
		s.mu.Unlock()
		releaseStream(stream)
		return fmt.Errorf("%w: closed during device acquisition", domain.ErrCaptureAborted)
	}
	s.stream = stream
	s.state = domain.CaptureRecording
	s.startedAt = s.now()
	s.chunks = nil
	s.mu.Unlock()

	// Callbacks may fire synchronously, so the lock is not held here.
	if err := stream.Start(s.handleData, s.handleStop); err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
		s.mu.Lock()
		held := s.takeStream()
		s.fail(err)
		s.mu.Unlock()
		releaseStream(held)
		return err
	}

	log.Printf("capture: recording started")
	return nil
}

// Stop requests the end of the recording. The device stop signal is
// deferred until the minimum duration has elapsed.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != domain.CaptureRecording {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: stop from %s", domain.ErrInvalidTransition, state)
	}
	s.state = domain.CaptureStopping
	elapsed := s.now().Sub(s.startedAt)
	delay := s.minDuration - elapsed
	if delay > 0 {
		log.Printf("WARN capture: recording too short (%s), delaying stop by %s", elapsed, delay)
		s.timer = s.afterFunc(delay, s.signalStop)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.signalStop()
	return nil
}

// Close tears the session down, releasing the device if it is still held.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	held := s.takeStream()
	if s.state.Active() {
		s.fail(domain.ErrCaptureAborted)
	}
	s.mu.Unlock()

	return releaseStream(held)
}

func (s *Session) signalStop() {
	s.mu.Lock()
	if s.state != domain.CaptureStopping || s.stream == nil {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.timer = nil
	s.mu.Unlock()

	stream.Stop()
}

func (s *Session) handleData(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return
	}
	s.chunks = append(s.chunks, append([]byte(nil), chunk...))
}

func (s *Session) handleStop(stopErr error) {
	s.mu.Lock()
	if !s.state.Active() {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	held := s.takeStream()

	raw := concatChunks(s.chunks)
	s.chunks = nil

	var (
		artifact domain.AudioArtifact
		err      error
	)
	switch {
	case stopErr != nil:
		err = fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, stopErr)
	case len(raw) == 0:
		err = domain.ErrEmptyCapture
	default:
		artifact, err = s.buildArtifact(raw)
	}

	if err != nil {
		s.fail(err)
	} else {
		s.state = domain.CaptureFinished
	}
	elapsed := s.now().Sub(s.startedAt)
	done := s.done
	s.mu.Unlock()

	releaseStream(held)

	if err != nil {
		log.Printf("WARN capture: session failed after %s: %v", elapsed, err)
	} else {
		log.Printf("capture: recording finished after %s, %d bytes", elapsed, artifact.Size())
	}
	if done != nil {
		done(artifact, err)
	}
}

func (s *Session) buildArtifact(raw []byte) (domain.AudioArtifact, error) {
	data := raw
	if s.encode != nil {
		encoded, err := s.encode(raw)
		if err != nil {
			return domain.AudioArtifact{}, fmt.Errorf("capture: encode failed: %w", err)
		}
		data = encoded
	}
	artifact := domain.AudioArtifact{
		Data:     data,
		MIMEType: s.mimeType,
		Source:   domain.SourceCapture,
		Filename: "audio.wav",
	}
	if s.durationOf != nil {
		artifact.Duration = s.durationOf(raw)
	}
	return artifact, nil
}

// fail must be called with mu held.
func (s *Session) fail(err error) {
	s.state = domain.CaptureFailed
	s.err = err
	s.chunks = nil
}

// takeStream hands ownership of the stream to the caller; mu must be held.
// Clearing the field guarantees a single Release per acquisition.
func (s *Session) takeStream() ports.AudioStream {
	held := s.stream
	s.stream = nil
	return held
}

func releaseStream(stream ports.AudioStream) error {
	if stream == nil {
		return nil
	}
	if err := stream.Release(); err != nil {
		log.Printf("WARN capture: failed to release device: %v", err)
		return fmt.Errorf("capture: release device: %w", err)
	}
	return nil
}

func concatChunks(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total == 0 {
		return nil
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
