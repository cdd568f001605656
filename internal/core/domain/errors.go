package domain

import "errors"

var (
	ErrNotFound = errors.New("domain: not found")

	// Capture
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
	ErrEmptyCapture      = errors.New("capture: empty capture")
	ErrCaptureAborted    = errors.New("capture: session aborted")
	ErrInvalidTransition = errors.New("capture: invalid state transition")

	// Prediction backend
	ErrUploadRejected    = errors.New("predict: upload rejected")
	ErrMalformedResponse = errors.New("predict: malformed response")

	// Catalog
	ErrAuthUnavailable    = errors.New("catalog: auth unavailable")
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
)
