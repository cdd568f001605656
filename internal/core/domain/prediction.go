package domain

const (
	// MajorityKey holds the consensus label across all models.
	MajorityKey = "majority"
	// ErrorKey marks a failed prediction.
	ErrorKey = "error"
)

// PredictionResult maps model identifiers (or MajorityKey) to emotion labels.
type PredictionResult map[string]string

// Majority returns the aggregated label. A missing or blank majority means
// no catalog lookup must run.
func (r PredictionResult) Majority() (string, bool) {
	label, ok := r[MajorityKey]
	if !ok || NormalizeLabel(label) == "" {
		return "", false
	}
	return label, true
}

// Failed reports whether the result carries an error marker.
func (r PredictionResult) Failed() bool {
	_, ok := r[ErrorKey]
	return ok
}

// UploadFailedResult is the marker stored when the upload itself failed.
func UploadFailedResult() PredictionResult {
	return PredictionResult{ErrorKey: "Upload failed"}
}
