// Package rest exposes the session orchestrator over HTTP and WebSocket.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/services"
)

const defaultMaxUploadBytes = 25 << 20

// Service is the part of the orchestrator the HTTP layer drives.
type Service interface {
	StartCapture(ctx context.Context) error
	StopCapture() error
	SelectFile(artifact domain.AudioArtifact) error
	ManualSearch(text string) error
	Clear()
	Snapshot() services.State
	Subscribe(fn func(services.State)) (unsubscribe func())
	History(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	HistoryEntry(ctx context.Context, id string) (domain.HistoryEntry, error)
}

var _ Service = (*services.Orchestrator)(nil)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc            Service
	metrics        http.Handler
	maxUploadBytes int64
	upgrader       websocket.Upgrader
	router         chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetricsHandler serves m at GET /metrics.
func WithMetricsHandler(m http.Handler) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithMaxUploadBytes limits the size of POST /v1/upload bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{
		svc:            svc,
		maxUploadBytes: defaultMaxUploadBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	// Register Routes
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health Check
	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/capture/start", h.StartCapture)
		r.Post("/capture/stop", h.StopCapture)
		r.Post("/upload", h.Upload)
		r.Post("/search", h.Search)
		r.Post("/clear", h.Clear)
		r.Get("/state", h.GetState)
		r.Get("/state/ws", h.StateStream)
		r.Get("/history", h.ListHistory)
		r.Get("/history/{id}", h.GetHistoryEntry)
	})

	h.router = r
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Mood Melody is live 🎶"})
}

// sameOrigin only lets browsers on the serving host open the state stream.
// Clients without an Origin header are allowed.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeErrorWithCode(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/json")
}
