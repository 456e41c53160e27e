// Package metrics holds the Prometheus collectors of the cart engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_facade_http_requests_total",
			Help: "Total number of HTTP requests served by the cart facade",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cart_facade_http_request_duration_seconds",
			Help:    "Duration of cart facade HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	syncOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_sync_operations_total",
			Help: "Cart store operations by outcome",
		},
		[]string{"operation", "status"},
	)

	fallbackFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_sync_fallback_fetch_total",
			Help: "Re-fetches issued because a mutation response could not be used",
		},
	)

	pendingAdds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_sync_pending_adds",
			Help: "Optimistic adds not yet confirmed by the backend",
		},
	)
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Recorder receives cart store outcomes.
type Recorder interface {
	Operation(operation, status string)
	FallbackFetch()
	PendingAdds(n int)
}

// Prometheus reports to the package collectors.
type Prometheus struct{}

func (Prometheus) Operation(operation, status string) {
	syncOperations.WithLabelValues(operation, status).Inc()
}

func (Prometheus) FallbackFetch() {
	fallbackFetches.Inc()
}

func (Prometheus) PendingAdds(n int) {
	pendingAdds.Set(float64(n))
}

// Nop discards everything.
type Nop struct{}

func (Nop) Operation(string, string) {}
func (Nop) FallbackFetch()           {}
func (Nop) PendingAdds(int)          {}
