// Package tracing provides OpenTelemetry tracing for forwarded requests.
//
// When enabled, spans are exported over OTLP gRPC and the W3C trace
// context is propagated to the upstream through the traceparent header.
// When disabled, New returns a Tracer backed by a noop provider, and a nil
// *Tracer is also usable.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "gateway.forward")
//	defer span.End()
//	tracing.Inject(ctx, outbound.Header)
package tracing
