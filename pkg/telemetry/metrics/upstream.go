package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// upstreamStatuses are the label values of the upstream_status gauge.
var upstreamStatuses = []string{"unknown", "healthy", "unhealthy"}

// UpstreamMetrics tracks upstream health and forwarding failures.
//
// Metrics:
//   - callisto_gateway_upstream_status: 1 for the current status label, 0 otherwise
//   - callisto_gateway_upstream_probes_total: probe count by result
//   - callisto_gateway_upstream_probe_duration_seconds: probe latency
//   - callisto_gateway_upstream_errors_total: forward failures by kind
type UpstreamMetrics struct {
	status        *prometheus.GaugeVec
	probes        *prometheus.CounterVec
	probeDuration prometheus.Histogram
	errors        *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_status",
				Help:      "Upstream health status (1 for the active status)",
			},
			[]string{"status"},
		),

		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_probes_total",
				Help:      "Total number of upstream health probes by result",
			},
			[]string{"result"},
		),

		probeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_probe_duration_seconds",
				Help:      "Upstream health probe latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of failed forwards by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		um.status,
		um.probes,
		um.probeDuration,
		um.errors,
	)

	um.SetStatus("unknown")

	return um
}

// RecordProbe records one probe.
func (um *UpstreamMetrics) RecordProbe(success bool, latency time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	um.probes.WithLabelValues(result).Inc()
	um.probeDuration.Observe(latency.Seconds())
}

// SetStatus sets the gauge for status to 1 and every other status to 0.
func (um *UpstreamMetrics) SetStatus(status string) {
	for _, s := range upstreamStatuses {
		value := 0.0
		if s == status {
			value = 1
		}
		um.status.WithLabelValues(s).Set(value)
	}
}
