package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordQuery("buffered")
	c.RecordQuery("stream")
	c.RecordQuery("stream")
	c.RecordRefresh("success")
	c.RecordStreamChunks(5)
	c.RecordInvalidation()
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.queries.WithLabelValues("stream")); got != 2 {
		t.Errorf("Expected 2 stream queries, got %v", got)
	}
	if got := testutil.ToFloat64(c.refreshes.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 successful refresh, got %v", got)
	}
	if got := testutil.ToFloat64(c.streamChunks); got != 5 {
		t.Errorf("Expected 5 stream chunks, got %v", got)
	}
	if got := testutil.ToFloat64(c.invalidations); got != 1 {
		t.Errorf("Expected 1 invalidation, got %v", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("Expected one 404, got %v", got)
	}
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordQuery("buffered")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "omniq_queries_total") {
		t.Error("Expected omniq_queries_total in exposition output")
	}
}
