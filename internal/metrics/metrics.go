// Package metrics provides Prometheus metrics for the Telegram MCP adapter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the adapter.
type Metrics struct {
	ToolCallsTotal    *prometheus.CounterVec
	ToolCallDuration  *prometheus.HistogramVec
	APIRequestsTotal  *prometheus.CounterVec
	RPCRequestsTotal  *prometheus.CounterVec
	InFlightToolCalls prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_mcp_tool_calls_total",
				Help: "Total number of tool calls by tool and status.",
			},
			[]string{"tool", "status"},
		),
		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telegram_mcp_tool_call_duration_seconds",
				Help:    "Tool call duration by tool.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_mcp_api_requests_total",
				Help: "Total outbound Bot API requests by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		RPCRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_mcp_rpc_requests_total",
				Help: "Total JSON-RPC requests by method and transport.",
			},
			[]string{"method", "transport"},
		),
		InFlightToolCalls: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "telegram_mcp_tool_calls_in_flight",
				Help: "Number of tool calls currently waiting on the Bot API.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.ToolCallsTotal)
	reg.MustRegister(m.ToolCallDuration)
	reg.MustRegister(m.APIRequestsTotal)
	reg.MustRegister(m.RPCRequestsTotal)
	reg.MustRegister(m.InFlightToolCalls)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordToolCall increments the tool call counter.
func (m *Metrics) RecordToolCall(tool, status string) {
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

// ObserveToolCall records tool call duration.
func (m *Metrics) ObserveToolCall(tool string, seconds float64) {
	m.ToolCallDuration.WithLabelValues(tool).Observe(seconds)
}

// RecordAPIRequest increments the outbound request counter.
func (m *Metrics) RecordAPIRequest(method, outcome string) {
	m.APIRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordRPC increments the JSON-RPC request counter.
func (m *Metrics) RecordRPC(method, transport string) {
	m.RPCRequestsTotal.WithLabelValues(method, transport).Inc()
}

// ToolCallStarted and ToolCallFinished track in-flight calls.
func (m *Metrics) ToolCallStarted()  { m.InFlightToolCalls.Inc() }
func (m *Metrics) ToolCallFinished() { m.InFlightToolCalls.Dec() }
