// Package observability holds the Prometheus instruments for the service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CaptureSessions *prometheus.CounterVec
	CaptureDuration prometheus.Histogram
	Uploads         *prometheus.CounterVec
	TokenExchanges  *prometheus.CounterVec
	CatalogSearches *prometheus.CounterVec
	StaleResponses  *prometheus.CounterVec
	UploadLatency   prometheus.Histogram
}

// NewMetrics registers all instruments on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CaptureSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_sessions_total",
			Help:      "Capture sessions by outcome.",
		}, []string{"outcome"}),
		CaptureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_duration_seconds",
			Help:      "Duration of finished recordings.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 30},
		}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Prediction uploads by outcome.",
		}, []string{"outcome"}),
		TokenExchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_exchanges_total",
			Help:      "Catalog credential exchanges by outcome.",
		}, []string{"outcome"}),
		CatalogSearches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Catalog searches by outcome.",
		}, []string{"outcome"}),
		StaleResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Results dropped because their session was superseded, by stage.",
		}, []string{"stage"}),
		UploadLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_latency_ms",
			Help:      "Latency of prediction uploads in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000},
		}),
	}
}

func (m *Metrics) ObserveCapture(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CaptureSessions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK && d > 0 {
		m.CaptureDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveUpload(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(outcome).Inc()
	m.UploadLatency.Observe(float64(latency.Milliseconds()))
}

func (m *Metrics) ObserveTokenExchange(outcome string) {
	if m == nil {
		return
	}
	m.TokenExchanges.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCatalogSearch(outcome string) {
	if m == nil {
		return
	}
	m.CatalogSearches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStale(stage string) {
	if m == nil {
		return
	}
	m.StaleResponses.WithLabelValues(stage).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
