package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks requests served by the gateway.
//
// Metrics:
//   - callisto_gateway_requests_total: request count by route, method, code
//   - callisto_gateway_request_duration_seconds: request duration by route
//   - callisto_gateway_response_bytes_total: response body bytes by route
//   - callisto_gateway_requests_in_flight: requests currently being forwarded
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseBytes   *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of requests served",
			},
			[]string{"route", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of requests in seconds, including streamed bodies",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),

		responseBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "response_bytes_total",
				Help:      "Total response body bytes written to clients",
			},
			[]string{"route"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being forwarded upstream",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.responseBytes,
		rm.inFlight,
	)

	return rm
}

// RecordRequest records a single completed request.
func (rm *RequestMetrics) RecordRequest(route, method, code string, duration time.Duration, bytes int64) {
	rm.requestsTotal.WithLabelValues(route, method, code).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
	if bytes > 0 {
		rm.responseBytes.WithLabelValues(route).Add(float64(bytes))
	}
}
