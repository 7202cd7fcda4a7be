// Package metrics provides Prometheus metrics collection for Callisto.
//
// # Metrics Categories
//
//   - Request metrics: count, duration, bytes, and in-flight requests per route
//   - Upstream metrics: health status, probe results and latency, forward errors
//   - Supervisor metrics: restarts, heartbeats, bound port, journal outcomes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
//	collector.RecordRequest("chat-completions", "POST", 200, elapsed, n)
//
// Every recording method is a no-op on a nil or disabled Collector.
package metrics
