// Package metrics exposes Prometheus collectors for the feed service.
package metrics

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
	feedSearchesTotal          *prometheus.CounterVec
	feedRecordsTotal           *prometheus.CounterVec
	feedSourceDurationSeconds  *prometheus.HistogramVec
	feedActiveSearches         prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		feedSearchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_searches_total",
				Help: "Total number of per-source searches, labeled by source and status.",
			},
			[]string{"source", "status"},
		)

		feedRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_records_total",
				Help: "Total number of records produced, labeled by source.",
			},
			[]string{"source"},
		)

		feedSourceDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feed_source_duration_seconds",
				Help:    "Histogram of per-source search latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		feedActiveSearches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "feed_active_searches",
				Help: "Number of aggregated searches currently in flight.",
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSourceSearch records one adapter search outcome.
func ObserveSourceSearch(source string, success bool, records int, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	feedSearchesTotal.WithLabelValues(source, status).Inc()
	if records > 0 {
		feedRecordsTotal.WithLabelValues(source).Add(float64(records))
	}
	feedSourceDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// IncActiveSearches increments the in-flight search gauge.
func IncActiveSearches() {
	feedActiveSearches.Inc()
}

// DecActiveSearches decrements the in-flight search gauge.
func DecActiveSearches() {
	feedActiveSearches.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
