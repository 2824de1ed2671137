// Package metrics exposes Prometheus instrumentation for HTTP traffic and
// notification dispatch outcomes.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics tracks inbound request volume and latency.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rentstack_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentstack_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// GinMiddleware records request metrics after the handler chain completes.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// DispatchMetrics tracks notification dispatch outcomes per delivery channel.
type DispatchMetrics struct {
	outcomes *prometheus.CounterVec
	statuses *prometheus.CounterVec
}

func NewDispatchMetrics() *DispatchMetrics {
	return &DispatchMetrics{
		outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rentstack_dispatch_outcomes_total",
			Help: "Notification dispatch outcomes by message type and delivery channel.",
		}, []string{"message_type", "via"}),
		statuses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rentstack_delivery_status_updates_total",
			Help: "Delivery status callbacks applied, by reported status.",
		}, []string{"status"}),
	}
}

func (m *DispatchMetrics) RecordOutcome(messageType, via string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(messageType, via).Inc()
}

func (m *DispatchMetrics) RecordStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.statuses.WithLabelValues(status).Inc()
}
