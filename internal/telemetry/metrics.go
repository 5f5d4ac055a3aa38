package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var toolDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// Metrics holds the server's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver so metrics can be switched off.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcmcp_requests_total",
				Help: "JSON-RPC requests dispatched, by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcmcp_tool_calls_total",
				Help: "Tool invocations, by tool and status.",
			},
			[]string{"tool", "status"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "calcmcp_tool_duration_seconds",
				Help:    "Tool execution latency.",
				Buckets: toolDurationBuckets,
			},
			[]string{"tool"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.toolCalls,
		m.toolDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) IncRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) IncToolCall(toolName, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(toolName, status).Inc()
}

func (m *Metrics) ObserveToolDuration(toolName string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolDuration.WithLabelValues(toolName).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
