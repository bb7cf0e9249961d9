// Package metrics holds the Prometheus collectors exported at /metrics.
// Collectors register with the default registry through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdiary_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripdiary_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// Timeline
	TimelineConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdiary_timeline_conflicts_total",
			Help: "Timeline writes rejected because the slot overlaps another item",
		},
		[]string{"operation"}, // "add", "update"
	)

	DaysGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripdiary_days_generated_total",
			Help: "Trip days generated at trip creation",
		},
	)

	// Authorization
	ForbiddenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripdiary_forbidden_total",
			Help: "Requests rejected because the caller does not own the trip",
		},
	)

	// Storage
	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripdiary_tx_retries_total",
			Help: "Transactions retried after a lock or serialization failure",
		},
	)
)
