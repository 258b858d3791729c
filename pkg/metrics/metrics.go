// Package metrics exposes Prometheus instrumentation for integration
// runs and provider calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for the integration backend.
type Metrics struct {
	registry *prometheus.Registry

	// IntegrationsTotal counts integration runs by terminal result
	// (committed, conflict, not_found, provider_error, internal_error).
	IntegrationsTotal *prometheus.CounterVec

	// IntegrationDuration observes end-to-end integration run time.
	IntegrationDuration prometheus.Histogram

	// IssuesIntegrated counts issue rows created by committed runs.
	IssuesIntegrated prometheus.Counter

	// EventsPersisted counts history event rows created by committed runs.
	EventsPersisted prometheus.Counter
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		IntegrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integration_runs_total",
			Help: "Integration runs by terminal result.",
		}, []string{"result"}),
		IntegrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "integration_run_duration_seconds",
			Help:    "End-to-end duration of integration runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		IssuesIntegrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "integration_issues_total",
			Help: "Issue rows created by committed integration runs.",
		}),
		EventsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "integration_events_total",
			Help: "History event rows created by committed integration runs.",
		}),
	}

	m.registry.MustRegister(
		m.IntegrationsTotal,
		m.IntegrationDuration,
		m.IssuesIntegrated,
		m.EventsPersisted,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
