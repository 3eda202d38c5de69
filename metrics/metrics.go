package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeAdmitted = "admitted"
	OutcomeRejected = "rejected"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_admission_decisions_total",
			Help: "Capacity admission decisions by meal period and outcome",
		},
		[]string{"meal_period", "outcome"},
	)
	AdmissionLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reservation_admission_lock_wait_seconds",
			Help:    "Time spent waiting for the per-slot admission lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
)

// ObserveAdmission records one admission decision.
func ObserveAdmission(period string, admitted bool) {
	outcome := OutcomeRejected
	if admitted {
		outcome = OutcomeAdmitted
	}
	AdmissionDecisions.WithLabelValues(period, outcome).Inc()
}

// Middleware records request counts and latency labelled by route template.
func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}
	start := time.Now()
	c.Next()
	duration := time.Since(start).Seconds()
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())
	RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	RequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
}
