package metrics

import (
	"strconv"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric exported by the gateway.
// All methods are safe on a nil Collector and on a disabled one, so
// components can record unconditionally.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics    *RequestMetrics
	upstreamMetrics   *UpstreamMetrics
	supervisorMetrics *SupervisorMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "callisto",
//		Subsystem: "gateway",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.supervisorMetrics = NewSupervisorMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records a completed gateway request.
//
// Parameters:
//   - route: matched rule name, or "unmatched"
//   - method: HTTP method as received
//   - status: response status code
//   - duration: time from receipt to last byte written
//   - bytes: response body bytes written
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration, bytes int64) {
	if !c.enabled() {
		return
	}

	// Clients choose the method; unknown combinations collapse into "other".
	if !c.cardinalityLimiter.Allow(route + ":" + method) {
		method = "other"
	}

	c.requestMetrics.RecordRequest(route, method, strconv.Itoa(status), duration, bytes)
}

// IncInFlight marks the start of a forwarded request.
func (c *Collector) IncInFlight() {
	if !c.enabled() {
		return
	}
	c.requestMetrics.inFlight.Inc()
}

// DecInFlight marks the end of a forwarded request.
func (c *Collector) DecInFlight() {
	if !c.enabled() {
		return
	}
	c.requestMetrics.inFlight.Dec()
}

// RecordUpstreamError records a failed forward by kind
// ("timeout", "transport", "unavailable").
func (c *Collector) RecordUpstreamError(kind string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.errors.WithLabelValues(kind).Inc()
}

// RecordProbe records the outcome and latency of one health probe.
func (c *Collector) RecordProbe(success bool, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordProbe(success, latency)
}

// SetUpstreamStatus publishes the tracker's current status
// ("unknown", "healthy", "unhealthy").
func (c *Collector) SetUpstreamStatus(status string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.SetStatus(status)
}

// RecordRestart records a listener restart after a crash.
func (c *Collector) RecordRestart() {
	if !c.enabled() {
		return
	}
	c.supervisorMetrics.restarts.Inc()
}

// RecordHeartbeat records one heartbeat and whether the self-probe passed.
func (c *Collector) RecordHeartbeat(ok bool) {
	if !c.enabled() {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.supervisorMetrics.heartbeats.WithLabelValues(result).Inc()
}

// SetListenerPort publishes the bound port.
func (c *Collector) SetListenerPort(port int) {
	if !c.enabled() {
		return
	}
	c.supervisorMetrics.port.Set(float64(port))
}

// RecordJournalWrite records a journal entry written to storage.
func (c *Collector) RecordJournalWrite() {
	if !c.enabled() {
		return
	}
	c.supervisorMetrics.journalWrites.WithLabelValues("written").Inc()
}

// RecordJournalDrop records a journal entry dropped because the queue was full
// or the write failed.
func (c *Collector) RecordJournalDrop() {
	if !c.enabled() {
		return
	}
	c.supervisorMetrics.journalWrites.WithLabelValues("dropped").Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
