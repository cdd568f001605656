package rest

import (
	"encoding/json"
	"net/http"
)

// StartCapture handles POST /v1/capture/start
func (h *Handler) StartCapture(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StartCapture(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.Snapshot())
}

// StopCapture handles POST /v1/capture/stop
func (h *Handler) StopCapture(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StopCapture(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.Snapshot())
}

type searchRequest struct {
	Emotion string `json:"emotion"`
}

// Search handles POST /v1/search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeBadInput)
		return
	}

	if err := h.svc.ManualSearch(req.Emotion); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.Snapshot())
}

// Clear handles POST /v1/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.svc.Clear()
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}

// GetState handles GET /v1/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot())
}
