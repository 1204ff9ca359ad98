// ABOUTME: Prometheus metrics collection for the gateway
// ABOUTME: Counts queries, refresh outcomes, stream chunks, and HTTP statuses

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers gateway metrics into a Prometheus registry.
type Collector struct {
	queries       *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	streamChunks  prometheus.Counter
	invalidations prometheus.Counter
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omniq_queries_total",
			Help: "Queries handled, by response mode",
		}, []string{"mode"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omniq_credential_refresh_total",
			Help: "Credential refresh cycles, by outcome",
		}, []string{"outcome"}),
		streamChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "omniq_stream_chunks_total",
			Help: "Chunks emitted on streamed query responses",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "omniq_credential_invalidations_total",
			Help: "Cache invalidations triggered by credential file changes",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omniq_http_status_total",
			Help: "HTTP responses, by status code",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.queries,
		c.refreshes,
		c.streamChunks,
		c.invalidations,
		c.httpStatus,
	)

	return c
}

// RecordQuery counts a handled query; mode is "buffered" or "stream".
func (c *Collector) RecordQuery(mode string) {
	c.queries.WithLabelValues(mode).Inc()
}

// RecordRefresh counts a refresh cycle by outcome.
func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// RecordStreamChunks counts chunks emitted for one streamed response.
func (c *Collector) RecordStreamChunks(n int) {
	c.streamChunks.Add(float64(n))
}

// RecordInvalidation counts a watcher-triggered cache invalidation.
func (c *Collector) RecordInvalidation() {
	c.invalidations.Inc()
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(code int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(code)).Inc()
}

// Handler exposes the registry in Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
