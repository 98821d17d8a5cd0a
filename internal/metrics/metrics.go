// Package metrics instruments the identity client's HTTP traffic and
// operation outcomes with Prometheus collectors on a private registry.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/ayanel/kagi/pkg/identity"
)

// Metrics holds the kagi collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	OperationsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kagi_identity_requests_total",
				Help: "HTTP requests sent to the identity service by status code and method",
			},
			[]string{"code", "method"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kagi_identity_request_duration_seconds",
				Help:    "Latency of identity service requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kagi_identity_requests_in_flight",
			Help: "Identity service requests currently in flight",
		}),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kagi_operations_total",
				Help: "Client operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	m.registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.InFlight, m.OperationsTotal)
	return m
}

// Registry exposes the private registry, e.g. for promhttp.HandlerFor.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Transport wraps next (http.DefaultTransport if nil) with request counting,
// latency and in-flight instrumentation.
func (m *Metrics) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(m.InFlight,
		promhttp.InstrumentRoundTripperCounter(m.RequestsTotal,
			promhttp.InstrumentRoundTripperDuration(m.RequestDuration, next),
		),
	)
}

// Outcome names the result of an operation for the outcome label:
// "ok", the classified reason, or the failure kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var authErr *identity.AuthError
	if errors.As(err, &authErr) {
		if authErr.Classified() {
			return authErr.Reason.String()
		}
		return authErr.Kind.String()
	}
	switch {
	case errors.Is(err, identity.ErrInvalidArgument):
		return "invalid argument"
	case errors.Is(err, identity.ErrClientClosed):
		return "closed"
	}
	return "error"
}

// Observe counts one finished operation.
func (m *Metrics) Observe(operation string, err error) {
	m.OperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// Dump writes every collected family in the Prometheus text format.
func (m *Metrics) Dump(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
