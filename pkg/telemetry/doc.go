// Package telemetry groups the gateway's observability packages.
//
//   - logging: log/slog setup with request IDs and secret redaction
//   - metrics: Prometheus collectors for requests, upstream health, and the supervisor
//   - tracing: OpenTelemetry spans for forwarded requests
//   - health: the gateway's own liveness and readiness endpoints
package telemetry
