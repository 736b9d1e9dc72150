// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aggregator"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the service collectors and the registry they are bound to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	ledgerOps   *prometheus.CounterVec
	upstream    *prometheus.CounterVec
	circuit     *prometheus.GaugeVec
	seededUsers prometheus.Counter
}

// New registers the service collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ledgerOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Total number of ledger operations per operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		upstream: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream API requests per endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		circuit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "upstream_circuit_state",
				Help:      "Current upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		seededUsers: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "seeded_users_total",
				Help:      "Total number of users created by the demo seeder",
			},
		),
	}
	m.registry.MustRegister(
		m.ledgerOps,
		m.upstream,
		m.circuit,
		m.seededUsers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// LedgerOperation counts a deposit or swap attempt.
func (m *Metrics) LedgerOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(operation, outcome(err)).Inc()
}

// UpstreamRequest counts a call to the quote or price API.
func (m *Metrics) UpstreamRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(endpoint, outcome(err)).Inc()
}

// CircuitState records the numeric state of a named breaker.
func (m *Metrics) CircuitState(breaker string, state int) {
	if m == nil {
		return
	}
	m.circuit.WithLabelValues(breaker).Set(float64(state))
}

// SeededUsers adds n to the seeded user counter.
func (m *Metrics) SeededUsers(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.seededUsers.Add(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
