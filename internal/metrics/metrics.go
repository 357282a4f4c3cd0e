// Package metrics exposes Prometheus collectors for store changes, MCP tool
// calls and realtime connections.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganot/estimate-poker/internal/realtime"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	tableChanges    *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	realtimeClients prometheus.Gauge
	realtimeDropped prometheus.Counter
}

// New creates the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		tableChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poker_table_changes_total",
			Help: "Store changes by table and event",
		}, []string{"table", "event"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poker_tool_calls_total",
			Help: "MCP tool calls by tool and result",
		}, []string{"tool", "result"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "poker_tool_duration_seconds",
			Help:    "MCP tool call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"tool"}),
		realtimeClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "poker_realtime_clients",
			Help: "Connected realtime websocket clients",
		}),
		realtimeDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "poker_realtime_dropped_total",
			Help: "Realtime changes dropped because a client buffer was full",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Attach counts every change published on hub for tables. It returns the
// channel id to pass to hub.RemoveChannel.
func (m *Metrics) Attach(hub *realtime.Hub, tables ...string) (string, error) {
	ch := hub.Channel("metrics")
	for _, table := range tables {
		ch.On(realtime.Binding{Event: realtime.EventAll, Table: table}, m.ObserveChange)
	}
	return ch.Subscribe()
}

// ObserveChange counts one store change.
func (m *Metrics) ObserveChange(c realtime.Change) {
	if m == nil {
		return
	}
	m.tableChanges.WithLabelValues(c.Table, string(c.Event)).Inc()
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(tool string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.toolCalls.WithLabelValues(tool, result).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ClientConnected tracks a new realtime client.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

// ClientDisconnected tracks a closed realtime client.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}

// Dropped counts a change not delivered to a slow client.
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.realtimeDropped.Inc()
}
