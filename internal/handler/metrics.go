package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rrddResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rrdd_account_resolutions_total",
		Help: "Total account resolutions by outcome (created vs updated).",
	}, []string{"outcome"})

	rrddVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rrdd_credential_verifications_total",
		Help: "Total credential verifications by result.",
	}, []string{"result"})

	rrddRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rrdd_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	rrddRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rrdd_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	rrddStoreUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rrdd_store_up",
		Help: "1 when the account store answered the last health probe.",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rrddRequestsTotal.WithLabelValues(method, path, status).Inc()
		rrddRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordResolution records a completed account resolution.
func RecordResolution(created bool) {
	if created {
		rrddResolutionsTotal.WithLabelValues("created").Inc()
	} else {
		rrddResolutionsTotal.WithLabelValues("updated").Inc()
	}
}

// RecordVerification records a credential verification result
// ("ok", "missing", "rejected", "unreachable", "error").
func RecordVerification(result string) {
	rrddVerificationsTotal.WithLabelValues(result).Inc()
}

// SetStoreUp records the latest store health probe result.
func SetStoreUp(up bool) {
	if up {
		rrddStoreUp.Set(1)
	} else {
		rrddStoreUp.Set(0)
	}
}
