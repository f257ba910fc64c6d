// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HTTPRequests counts requests by method, route pattern and status class.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantgate_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantgate_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttempts counts credential checks by method (jwt, api-key) and outcome.
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantgate_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"method", "outcome"},
	)

	APIKeyOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantgate_api_key_operations_total",
			Help: "API key lifecycle operations",
		},
		[]string{"operation"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantgate_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"topic", "outcome"},
	)

	RateLimitRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenantgate_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPRequestDuration,
		AuthAttempts,
		APIKeyOperations,
		EventsPublished,
		RateLimitRejected,
	)
}
