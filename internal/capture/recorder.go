package capture

import (
	"time"

	"github.com/ewilliams-labs/moodmelody/internal/audio"
	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

// Recorder binds a device to session options and creates one session per
// recording.
type Recorder struct {
	device      ports.AudioDevice
	minDuration time.Duration
	encode      Encoder
	mimeType    string
	durationOf  func(raw []byte) time.Duration
	now         func() time.Time
	afterFunc   func(d time.Duration, f func()) StopTimer
}

var _ ports.Recorder = (*Recorder)(nil)

// Option configures a Recorder.
type Option func(*Recorder)

// WithMinDuration overrides DefaultMinDuration.
func WithMinDuration(d time.Duration) Option {
	return func(r *Recorder) {
		if d >= 0 {
			r.minDuration = d
		}
	}
}

// WithPCMFormat wraps raw PCM16LE device output in a WAV container.
func WithPCMFormat(format audio.Format) Option {
	return func(r *Recorder) {
		r.encode = func(raw []byte) ([]byte, error) {
			return audio.EncodeWAV(raw, format)
		}
		r.durationOf = func(raw []byte) time.Duration {
			return format.Duration(len(raw))
		}
		r.mimeType = domain.MIMETypeWAV
	}
}

// WithClock replaces the wall clock and stop scheduler.
func WithClock(now func() time.Time, afterFunc func(d time.Duration, f func()) StopTimer) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
		if afterFunc != nil {
			r.afterFunc = afterFunc
		}
	}
}

// NewRecorder constructs a Recorder. Without options the device chunks are
// assumed to already form a WAV stream.
func NewRecorder(device ports.AudioDevice, opts ...Option) *Recorder {
	r := &Recorder{
		device:      device,
		minDuration: DefaultMinDuration,
		mimeType:    domain.MIMETypeWAV,
		now:         time.Now,
		afterFunc: func(d time.Duration, f func()) StopTimer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSession creates an idle session. done is invoked exactly once when a
// started session reaches finished or fails after Start returned. It is not
// invoked for sessions torn down with Close.
func (r *Recorder) NewSession(done ports.CaptureDone) ports.CaptureSession {
	return r.newSession(done)
}

func (r *Recorder) newSession(done ports.CaptureDone) *Session {
	return &Session{
		device:      r.device,
		done:        done,
		minDuration: r.minDuration,
		encode:      r.encode,
		mimeType:    r.mimeType,
		durationOf:  r.durationOf,
		now:         r.now,
		afterFunc:   r.afterFunc,
		state:       domain.CaptureIdle,
	}
}
