package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/services"
	"github.com/ewilliams-labs/moodmelody/internal/worker"
)

// Error codes returned alongside the message.
const (
	errCodeCaptureActive     = "CAPTURE_ACTIVE"
	errCodeInvalidTransition = "INVALID_TRANSITION"
	errCodeBusy              = "BUSY"
	errCodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	errCodeBadInput          = "BAD_INPUT"
	errCodeNotFound          = "NOT_FOUND"
	errCodeUnsupportedAudio  = "UNSUPPORTED_AUDIO"
)

// writeServiceError maps orchestrator errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCaptureActive):
		writeErrorWithCode(w, http.StatusConflict, err.Error(), errCodeCaptureActive)
	case errors.Is(err, services.ErrNoCapture), errors.Is(err, domain.ErrInvalidTransition):
		writeErrorWithCode(w, http.StatusConflict, err.Error(), errCodeInvalidTransition)
	case errors.Is(err, services.ErrEmptyQuery), errors.Is(err, services.ErrEmptyFile):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeBadInput)
	case errors.Is(err, services.ErrBusy), errors.Is(err, worker.ErrStopped):
		writeErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), errCodeBusy)
	case errors.Is(err, domain.ErrDeviceUnavailable):
		writeErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), errCodeDeviceUnavailable)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	default:
		log.Printf("ERROR rest: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
