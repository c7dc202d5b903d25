// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "links_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Outcomes counts concurrency-controller results, e.g.
	// {operation="update", outcome="conflict"}.
	Outcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_outcomes_total",
			Help: "Link operation outcomes",
		},
		[]string{"operation", "outcome"},
	)

	StoreFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_store_faults_total",
			Help: "Storage faults surfaced to callers",
		},
		[]string{"operation"},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
