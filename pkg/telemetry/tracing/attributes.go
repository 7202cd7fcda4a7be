package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Custom attribute keys use the "callisto.*" namespace.
const (
	AttrRoute       = "callisto.route"
	AttrRouteMode   = "callisto.route.mode"
	AttrLongRunning = "callisto.route.long_running"
	AttrTimeoutMs   = "callisto.timeout_ms"
	AttrUpstreamURL = "callisto.upstream.url"
	AttrRequestID   = "callisto.request_id"

	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// SetRouteAttributes records which forwarding rule handled the request.
func SetRouteAttributes(span trace.Span, route, mode string, longRunning bool, timeoutMs int64) {
	span.SetAttributes(
		attribute.String(AttrRoute, route),
		attribute.String(AttrRouteMode, mode),
		attribute.Bool(AttrLongRunning, longRunning),
		attribute.Int64(AttrTimeoutMs, timeoutMs),
	)
}

// SetUpstreamAttributes records the outbound call.
func SetUpstreamAttributes(span trace.Span, method, url, requestID string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrUpstreamURL, url),
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	span.SetAttributes(attrs...)
}

// SetStatusCode records the upstream response status.
func SetStatusCode(span trace.Span, status int) {
	span.SetAttributes(attribute.Int(AttrHTTPStatusCode, status))
}
