package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	HTTPRequests.WithLabelValues("GET", "/health", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/health").Observe(0.01)
	AuthAttempts.WithLabelValues("jwt", "success").Inc()
	APIKeyOperations.WithLabelValues("create").Inc()
	EventsPublished.WithLabelValues("user.events", "ok").Inc()
	RateLimitRejected.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"tenantgate_http_requests_total",
		"tenantgate_http_request_duration_seconds",
		"tenantgate_auth_attempts_total",
		"tenantgate_api_key_operations_total",
		"tenantgate_events_published_total",
		"tenantgate_ratelimit_rejected_total",
	} {
		assert.True(t, found[name], "metric %s not registered", name)
	}
}
