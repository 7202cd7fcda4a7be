package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Gateway.PortRangeStart != DefaultPortRangeStart || cfg.Gateway.PortRangeEnd != DefaultPortRangeEnd {
					t.Errorf("expected port range %d-%d, got %d-%d",
						DefaultPortRangeStart, DefaultPortRangeEnd, cfg.Gateway.PortRangeStart, cfg.Gateway.PortRangeEnd)
				}
				if cfg.Gateway.DefaultTimeout != 60*time.Second {
					t.Errorf("expected default timeout 60s, got %v", cfg.Gateway.DefaultTimeout)
				}
				if cfg.Gateway.LongRunningTimeout != 300*time.Second {
					t.Errorf("expected long-running timeout 300s, got %v", cfg.Gateway.LongRunningTimeout)
				}
				if cfg.Upstream.URL != DefaultUpstreamURL {
					t.Errorf("expected upstream URL %q, got %q", DefaultUpstreamURL, cfg.Upstream.URL)
				}
				if cfg.Upstream.ProbeInterval != 10*time.Second || cfg.Upstream.ProbeTimeout != 5*time.Second {
					t.Errorf("expected probe 10s/5s, got %v/%v", cfg.Upstream.ProbeInterval, cfg.Upstream.ProbeTimeout)
				}
				if cfg.Upstream.FailureThreshold != 3 {
					t.Errorf("expected failure threshold 3, got %d", cfg.Upstream.FailureThreshold)
				}
				if cfg.Supervisor.MaxRestarts != 3 || cfg.Supervisor.RestartWindow != 5*time.Minute {
					t.Errorf("expected restart budget 3 per 5m, got %d per %v", cfg.Supervisor.MaxRestarts, cfg.Supervisor.RestartWindow)
				}
				if cfg.Supervisor.HeartbeatInterval != 5*time.Minute {
					t.Errorf("expected heartbeat 5m, got %v", cfg.Supervisor.HeartbeatInterval)
				}
				if cfg.Supervisor.ShutdownTimeout != DefaultShutdownTimeout {
					t.Errorf("expected shutdown timeout %v, got %v", DefaultShutdownTimeout, cfg.Supervisor.ShutdownTimeout)
				}
				if len(cfg.Routes) != len(DefaultRoutes()) {
					t.Errorf("expected %d default routes, got %d", len(DefaultRoutes()), len(cfg.Routes))
				}
				if cfg.CORS.AllowedOrigins[0] != "*" {
					t.Errorf("expected wildcard origin, got %v", cfg.CORS.AllowedOrigins)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
			},
		},
		{
			name: "explicit values are preserved",
			input: Config{
				Gateway:  GatewayConfig{PortRangeStart: 9000, PortRangeEnd: 9005},
				Upstream: UpstreamConfig{URL: "http://10.0.0.2:8000", FailureThreshold: 5},
				Routes:   []RouteConfig{{Method: "GET", Path: "/status"}},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Gateway.PortRangeStart != 9000 || cfg.Gateway.PortRangeEnd != 9005 {
					t.Errorf("port range overwritten: %d-%d", cfg.Gateway.PortRangeStart, cfg.Gateway.PortRangeEnd)
				}
				if cfg.Upstream.URL != "http://10.0.0.2:8000" {
					t.Errorf("upstream URL overwritten: %q", cfg.Upstream.URL)
				}
				if cfg.Upstream.FailureThreshold != 5 {
					t.Errorf("failure threshold overwritten: %d", cfg.Upstream.FailureThreshold)
				}
				if len(cfg.Routes) != 1 {
					t.Fatalf("expected configured route only, got %d", len(cfg.Routes))
				}
				route := cfg.Routes[0]
				if route.Mode != "exact" {
					t.Errorf("expected mode exact, got %q", route.Mode)
				}
				if route.UpstreamPath != "/status" {
					t.Errorf("expected upstream path to default to path, got %q", route.UpstreamPath)
				}
				if route.Name != "GET /status" {
					t.Errorf("expected generated name, got %q", route.Name)
				}
				if !route.IsHealthGated() {
					t.Error("expected routes to be health gated by default")
				}
			},
		},
		{
			name: "shutdown timeout follows long-running timeout",
			input: Config{
				Gateway: GatewayConfig{LongRunningTimeout: 10 * time.Minute},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Supervisor.ShutdownTimeout != 10*time.Minute+5*time.Second {
					t.Errorf("expected shutdown timeout to cover long-running routes, got %v", cfg.Supervisor.ShutdownTimeout)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Gateway != first.Gateway {
		t.Errorf("gateway changed on second pass: %+v vs %+v", cfg.Gateway, first.Gateway)
	}
	if len(cfg.Routes) != len(first.Routes) {
		t.Errorf("routes changed on second pass: %d vs %d", len(cfg.Routes), len(first.Routes))
	}
}

func TestDefault_BooleanDefaults(t *testing.T) {
	cfg := Default()

	if !cfg.CORS.Enabled {
		t.Error("expected CORS enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if !cfg.Telemetry.Logging.RedactSecrets {
		t.Error("expected secret redaction enabled by default")
	}
	if cfg.Journal.Enabled {
		t.Error("expected journal disabled by default")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("expected tracing disabled by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultRoutes(t *testing.T) {
	routes := DefaultRoutes()

	byPath := make(map[string]RouteConfig)
	for _, r := range routes {
		byPath[r.Path] = r
	}

	tags, ok := byPath["/api/tags"]
	if !ok || tags.Mode != "exact" || tags.Method != "GET" || tags.Timeout != 10*time.Second {
		t.Errorf("unexpected /api/tags rule: %+v", tags)
	}
	chat, ok := byPath["/v1/chat/completions"]
	if !ok || !chat.LongRunning || chat.Method != "POST" {
		t.Errorf("unexpected chat completions rule: %+v", chat)
	}
	for _, prefix := range []string{"/api/", "/v1/"} {
		r, ok := byPath[prefix]
		if !ok || r.Mode != "prefix" || r.Method != "ANY" {
			t.Errorf("unexpected prefix rule for %s: %+v", prefix, r)
		}
	}
}
