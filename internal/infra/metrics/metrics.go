// Package metrics holds the prometheus collectors shared by the probing auth
// client and the HTTP transport. All recording methods are nil-safe so
// components can run without metrics wired (tests, fanctl).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probe result label values.
const (
	ProbeSuccess        = "success"
	ProbeNotFound       = "not_found"
	ProbeRejected       = "rejected"
	ProbeTransportError = "transport_error"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics bundles the prometheus collectors of the application.
type Metrics struct {
	authAttempts    *prometheus.CounterVec
	probeResults    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fanhub",
			Name:      "auth_attempts_total",
			Help:      "Completed auth operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		probeResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fanhub",
			Name:      "auth_probe_results_total",
			Help:      "Per-candidate endpoint probe results",
		}, []string{"operation", "path", "result"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fanhub",
			Name:      "http_request_duration_seconds",
			Help:      "Web front end request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// RecordAuthAttempt counts a finished login/signup operation.
func (m *Metrics) RecordAuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}

	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordProbe counts the result of one candidate endpoint attempt.
func (m *Metrics) RecordProbe(operation, path, result string) {
	if m == nil {
		return
	}

	m.probeResults.WithLabelValues(operation, path, result).Inc()
}

// ObserveRequest records the duration of one served HTTP request.
func (m *Metrics) ObserveRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}

	m.requestDuration.WithLabelValues(method, status).Observe(seconds)
}
