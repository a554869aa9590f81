// Package metrics exposes prometheus instruments for the HTTP surface and
// the billing workflow.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Domain counters shared by the workflow services.
type Domain struct {
	BillsGenerated   *prometheus.CounterVec
	ReadingsCaptured prometheus.Counter
	ReadingsTampered prometheus.Counter
	PaymentsRecorded prometheus.Counter
	RateLimitDenied  *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP instruments on the default registry.
func NewHTTPMetrics() *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meterbill_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meterbill_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	prometheus.MustRegister(m.requests, m.duration)
	return m
}

// NewDomain registers the workflow instruments on the default registry.
func NewDomain() *Domain {
	d := &Domain{
		BillsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meterbill_bills_generated_total",
			Help: "Bills generated, by utility type.",
		}, []string{"utility"}),
		ReadingsCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meterbill_readings_captured_total",
			Help: "Meter readings captured.",
		}),
		ReadingsTampered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meterbill_readings_tampered_total",
			Help: "Meter readings flagged as tampered at capture time.",
		}),
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meterbill_payments_recorded_total",
			Help: "Payments recorded against bills.",
		}),
		RateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meterbill_rate_limit_denied_total",
			Help: "Requests rejected by the capture rate limiter.",
		}, []string{"reason"}),
	}
	prometheus.MustRegister(
		d.BillsGenerated,
		d.ReadingsCaptured,
		d.ReadingsTampered,
		d.PaymentsRecorded,
		d.RateLimitDenied,
	)
	return d
}

// GinMiddleware records per-request metrics.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
