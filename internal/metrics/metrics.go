package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks API requests by method and result.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "result"},
	)

	// RequestLatency tracks API request latency.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitewatch_api_request_latency_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// OutcomesTotal tracks classified error outcomes by kind.
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_api_error_outcomes_total",
			Help: "Total number of classified error outcomes",
		},
		[]string{"kind"},
	)

	// RefreshAttempts tracks token refresh attempts by result.
	RefreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_token_refresh_attempts_total",
			Help: "Total number of token refresh attempts",
		},
		[]string{"result"},
	)

	// SessionInvalidations tracks forced session teardowns.
	SessionInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitewatch_session_invalidations_total",
			Help: "Total number of session invalidations",
		},
	)

	// AlertsArchived tracks alerts written to the archive per site.
	AlertsArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_alerts_archived_total",
			Help: "Total number of alerts archived",
		},
		[]string{"site"},
	)

	// PollFailures tracks failed alert poll cycles per site.
	PollFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitewatch_poll_failures_total",
			Help: "Total number of failed alert poll cycles",
		},
		[]string{"site", "kind"},
	)
)
