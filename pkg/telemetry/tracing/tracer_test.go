package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.TracingConfig
		wantErr bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name: "disabled tracing",
			config: &config.TracingConfig{
				Enabled:     false,
				ServiceName: "test-service",
			},
		},
		{
			name: "enabled with always sampler",
			config: &config.TracingConfig{
				Enabled:     true,
				Sampler:     "always",
				Endpoint:    "localhost:4317",
				ServiceName: "test-service",
				OTLP: config.OTLPConfig{
					Insecure: true,
					Timeout:  time.Second,
				},
			},
		},
		{
			name: "invalid sampler",
			config: &config.TracingConfig{
				Enabled:  true,
				Sampler:  "sometimes",
				Endpoint: "localhost:4317",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tracer.Enabled() != tt.config.Enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.config.Enabled)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = tracer.Shutdown(ctx)
		})
	}
}

func TestTracer_DisabledStartIsNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "gateway.forward")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("expected invalid span context from noop tracer")
	}
	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty", TraceID(ctx))
	}
}

func TestTracer_NilSafe(t *testing.T) {
	var tracer *Tracer

	_, span := tracer.Start(context.Background(), "op")
	span.End()

	if tracer.Enabled() {
		t.Error("nil tracer should report disabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestSetError_NilIsIgnored(t *testing.T) {
	_, span := (*Tracer)(nil).Start(context.Background(), "op")
	SetError(span, nil)
	SetError(span, errors.New("boom"))
	span.End()

}
