// Package metrics wires the proxy's Prometheus instrumentation: per-mode
// request counters and latency histograms, and per-adapter invocation
// counters and latency histograms. Everything is registered against a
// private registry rather than the global default, so engine tests can build
// as many Metrics instances as they like without a duplicate-registration
// panic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the proxy's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	adapterInvocations *prometheus.CounterVec
	adapterDuration    *prometheus.HistogramVec
}

// New constructs a Metrics instance with all collectors registered against a
// fresh, private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerstrip_requests_total",
			Help: "Total proxied requests, labeled by response mode and status class.",
		}, []string{"mode", "status_class"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "powerstrip_request_duration_seconds",
			Help:    "End-to-end request duration, labeled by response mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		adapterInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powerstrip_adapter_invocations_total",
			Help: "Total adapter invocations, labeled by adapter name, phase, and outcome.",
		}, []string{"adapter", "phase", "outcome"}),
		adapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "powerstrip_adapter_duration_seconds",
			Help:    "Adapter round-trip duration, labeled by adapter name and phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"adapter", "phase"}),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.adapterInvocations, m.adapterDuration)
	return m
}

// ObserveRequest records the outcome of one proxied request.
func (m *Metrics) ObserveRequest(mode string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(mode, statusClass(statusCode)).Inc()
	m.requestDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// ObserveAdapter records the outcome of one adapter invocation.
func (m *Metrics) ObserveAdapter(adapter, phase, outcome string, duration time.Duration) {
	m.adapterInvocations.WithLabelValues(adapter, phase, outcome).Inc()
	m.adapterDuration.WithLabelValues(adapter, phase).Observe(duration.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}
