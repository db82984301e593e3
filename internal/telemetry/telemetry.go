// Package telemetry exposes Prometheus collectors for the bindery service.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersTotal                *prometheus.CounterVec
	projectsTotal              *prometheus.CounterVec
	stageDurationSeconds       *prometheus.HistogramVec
	archiveBytesTotal          prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		ordersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bindery_orders_total",
				Help: "Total number of orders processed, labeled by derived status.",
			},
			[]string{"status"},
		)

		projectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bindery_projects_total",
				Help: "Total number of projects processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bindery_stage_duration_seconds",
				Help:    "Histogram of pipeline stage durations, labeled by stage.",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 120},
			},
			[]string{"stage"},
		)

		archiveBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bindery_archive_bytes_total",
				Help: "Total archive bytes fetched.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOrder increments the order counter for the derived status.
func ObserveOrder(status string) {
	if ordersTotal == nil {
		return
	}
	ordersTotal.WithLabelValues(status).Inc()
}

// ObserveProject increments the project counter for the given outcome.
func ObserveProject(outcome string) {
	if projectsTotal == nil {
		return
	}
	projectsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, duration time.Duration) {
	if stageDurationSeconds == nil {
		return
	}
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveArchiveBytes adds fetched archive bytes to the running counter.
func ObserveArchiveBytes(n int) {
	if archiveBytesTotal == nil {
		return
	}
	if n > 0 {
		archiveBytesTotal.Add(float64(n))
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
