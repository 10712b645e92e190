// Package metrics exposes Prometheus counters for flow outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const outcomeOK = "ok"

// Manager owns a private registry so tests can build as many as they like.
// A nil *Manager is valid and records nothing.
type Manager struct {
	registry *prometheus.Registry

	flowInits     *prometheus.CounterVec
	flowRedirects *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New creates a manager with flow and HTTP counters plus the Go runtime collectors.
func New() *Manager {
	m := &Manager{registry: prometheus.NewRegistry()}

	m.flowInits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthflow_inits_total",
			Help: "Flow inits by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)
	m.flowRedirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthflow_redirects_total",
			Help: "Returning redirects by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)
	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthflow_http_requests_total",
			Help: "HTTP requests served by the callback host",
		},
		[]string{"method", "route", "status"},
	)

	m.registry.MustRegister(
		m.flowInits,
		m.flowRedirects,
		m.httpRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFlowInit counts an init; an empty errorKind means success.
func (m *Manager) RecordFlowInit(flow, errorKind string) {
	if m == nil {
		return
	}
	m.flowInits.WithLabelValues(flow, outcome(errorKind)).Inc()
}

// RecordRedirect counts a routed redirect; an empty errorKind means success.
func (m *Manager) RecordRedirect(flow, errorKind string) {
	if m == nil {
		return
	}
	m.flowRedirects.WithLabelValues(flow, outcome(errorKind)).Inc()
}

// RecordHTTPRequest counts a served request.
func (m *Manager) RecordHTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

func outcome(errorKind string) string {
	if errorKind == "" {
		return outcomeOK
	}
	return errorKind
}
