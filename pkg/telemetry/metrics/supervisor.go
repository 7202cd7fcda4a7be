package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SupervisorMetrics tracks process-level events.
//
// Metrics:
//   - callisto_gateway_restarts_total: listener restarts after a crash
//   - callisto_gateway_heartbeats_total: heartbeats by self-probe result
//   - callisto_gateway_listener_port: the bound port
//   - callisto_gateway_journal_entries_total: journal entries by outcome
type SupervisorMetrics struct {
	restarts      prometheus.Counter
	heartbeats    *prometheus.CounterVec
	port          prometheus.Gauge
	journalWrites *prometheus.CounterVec
}

// NewSupervisorMetrics creates and registers supervisor metrics with the provided registry.
func NewSupervisorMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SupervisorMetrics {
	sm := &SupervisorMetrics{
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "restarts_total",
			Help:      "Total number of listener restarts after a crash",
		}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeats by self-probe result",
		}, []string{"result"}),
		port: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "listener_port",
			Help:      "Port the gateway listener is bound to",
		}),
		journalWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "journal_entries_total",
			Help:      "Total number of journal entries by outcome",
		}, []string{"outcome"}),
	}

	registry.MustRegister(sm.restarts, sm.heartbeats, sm.port, sm.journalWrites)

	return sm
}
