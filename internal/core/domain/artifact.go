package domain

import "time"

// Artifact sources.
const (
	SourceCapture = "capture"
	SourceFile    = "file"
	SourceManual  = "manual"
)

// MIMETypeWAV is the declared type of every artifact sent for prediction.
const MIMETypeWAV = "audio/wav"

// AudioArtifact is a finalized audio payload ready for upload.
// Data must not be modified after construction.
type AudioArtifact struct {
	Data     []byte
	MIMEType string
	Source   string
	Filename string
	Duration time.Duration // zero when unknown
}

// Size returns the payload length in bytes.
func (a AudioArtifact) Size() int {
	return len(a.Data)
}

// CaptureState is the lifecycle state of a capture session.
type CaptureState string

const (
	CaptureIdle      CaptureState = "idle"
	CaptureRecording CaptureState = "recording"
	CaptureStopping  CaptureState = "stopping"
	CaptureFinished  CaptureState = "finished"
	CaptureFailed    CaptureState = "failed"
)

// Active reports whether the session currently holds the device.
func (s CaptureState) Active() bool {
	return s == CaptureRecording || s == CaptureStopping
}

// Terminal reports whether no further transitions are possible.
func (s CaptureState) Terminal() bool {
	return s == CaptureFinished || s == CaptureFailed
}
