package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveTokenExchange(OutcomeOK)
	m.ObserveTokenExchange(OutcomeOK)
	m.ObserveStale("upload")
	m.ObserveUpload(OutcomeError, 20*time.Millisecond)
	m.ObserveCapture(OutcomeOK, 2*time.Second)

	if got := testutil.ToFloat64(m.TokenExchanges.WithLabelValues(OutcomeOK)); got != 2 {
		t.Fatalf("token exchanges: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StaleResponses.WithLabelValues("upload")); got != 1 {
		t.Fatalf("stale responses: got %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_uploads_total") {
		t.Fatalf("expected uploads counter in exposition, got:\n%s", body)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTokenExchange(OutcomeOK)
	m.ObserveCatalogSearch(OutcomeEmpty)
	m.ObserveStale("catalog")
	m.ObserveUpload(OutcomeOK, time.Second)
	m.ObserveCapture(OutcomeError, 0)
}
