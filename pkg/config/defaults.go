package config

import (
	"fmt"
	"time"
)

// Default values for configuration fields.
const (
	// Gateway defaults
	DefaultBindHost           = "0.0.0.0"
	DefaultPortRangeStart     = 8080
	DefaultPortRangeEnd       = 8089
	DefaultReadHeaderTimeout  = 10 * time.Second
	DefaultIdleTimeout        = 120 * time.Second
	DefaultMaxHeaderBytes     = 1048576 // 1MB
	DefaultRequestTimeout     = 60 * time.Second
	DefaultLongRunningTimeout = 300 * time.Second

	// Upstream defaults
	DefaultUpstreamURL         = "http://127.0.0.1:11434"
	DefaultProbePath           = "/api/tags"
	DefaultProbeInterval       = 10 * time.Second
	DefaultProbeTimeout        = 5 * time.Second
	DefaultFailureThreshold    = 3
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 100
	DefaultIdleConnTimeout     = 90 * time.Second

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Auth defaults
	DefaultAuthHeader = "X-API-Key"

	// Supervisor defaults
	DefaultMaxRestarts       = 3
	DefaultRestartWindow     = 5 * time.Minute
	DefaultRestartDelay      = time.Second
	DefaultHeartbeatInterval = 5 * time.Minute
	DefaultShutdownTimeout   = DefaultLongRunningTimeout + 5*time.Second

	// Journal defaults
	DefaultJournalEnabled       = false
	DefaultJournalPath          = "data/journal.db"
	DefaultJournalBufferSize    = 1000
	DefaultJournalBusyTimeout   = 5 * time.Second
	DefaultJournalRetentionDays = 7
	DefaultJournalPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultRedactSecrets       = true
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "callisto"
	DefaultMetricsSubsystem    = "gateway"
	DefaultTracingEnabled      = false
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "callisto"
	DefaultOTLPInsecure        = true
	DefaultOTLPTimeout         = 10 * time.Second
)

// DefaultRequestDurationBuckets covers quick metadata calls through
// long-running generations.
var DefaultRequestDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Default returns a configuration with every field set to its default.
// YAML files are decoded on top of it so that boolean defaults survive
// when a section is omitted.
func Default() *Config {
	cfg := &Config{
		CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		Journal: JournalConfig{
			Enabled: DefaultJournalEnabled,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: DefaultRedactSecrets},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{
				Enabled: DefaultTracingEnabled,
				OTLP:    OTLPConfig{Insecure: DefaultOTLPInsecure},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultRoutes returns the rule set used when no routes are configured.
// It mirrors the API surface of a local Ollama server.
func DefaultRoutes() []RouteConfig {
	return []RouteConfig{
		{Name: "tags", Method: "GET", Path: "/api/tags", Mode: "exact", Timeout: 10 * time.Second},
		{Name: "chat-completions", Method: "POST", Path: "/v1/chat/completions", Mode: "exact", LongRunning: true},
		{Name: "generate", Method: "POST", Path: "/api/generate", Mode: "exact", LongRunning: true},
		{Name: "chat", Method: "POST", Path: "/api/chat", Mode: "exact", LongRunning: true},
		{Name: "pull", Method: "POST", Path: "/api/pull", Mode: "exact", LongRunning: true},
		{Name: "api", Method: "ANY", Path: "/api/", Mode: "prefix"},
		{Name: "openai", Method: "ANY", Path: "/v1/", Mode: "prefix"},
	}
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Gateway defaults
	if cfg.Gateway.BindHost == "" {
		cfg.Gateway.BindHost = DefaultBindHost
	}
	if cfg.Gateway.PortRangeStart == 0 {
		cfg.Gateway.PortRangeStart = DefaultPortRangeStart
	}
	if cfg.Gateway.PortRangeEnd == 0 {
		cfg.Gateway.PortRangeEnd = DefaultPortRangeEnd
	}
	if cfg.Gateway.ReadHeaderTimeout == 0 {
		cfg.Gateway.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Gateway.IdleTimeout == 0 {
		cfg.Gateway.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Gateway.MaxHeaderBytes == 0 {
		cfg.Gateway.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Gateway.DefaultTimeout == 0 {
		cfg.Gateway.DefaultTimeout = DefaultRequestTimeout
	}
	if cfg.Gateway.LongRunningTimeout == 0 {
		cfg.Gateway.LongRunningTimeout = DefaultLongRunningTimeout
	}

	// Upstream defaults
	if cfg.Upstream.URL == "" {
		cfg.Upstream.URL = DefaultUpstreamURL
	}
	if cfg.Upstream.ProbePath == "" {
		cfg.Upstream.ProbePath = DefaultProbePath
	}
	if cfg.Upstream.ProbeInterval == 0 {
		cfg.Upstream.ProbeInterval = DefaultProbeInterval
	}
	if cfg.Upstream.ProbeTimeout == 0 {
		cfg.Upstream.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Upstream.FailureThreshold == 0 {
		cfg.Upstream.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Route defaults
	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRoutes()
	}
	for i := range cfg.Routes {
		route := &cfg.Routes[i]
		if route.Mode == "" {
			route.Mode = "exact"
		}
		if route.UpstreamPath == "" {
			route.UpstreamPath = route.Path
		}
		if route.Name == "" {
			route.Name = route.Method + " " + route.Path
		}
	}

	applyCORSDefaults(cfg)

	// Auth defaults
	if cfg.Auth.Header == "" {
		cfg.Auth.Header = DefaultAuthHeader
	}
	for i := range cfg.Auth.Keys {
		if cfg.Auth.Keys[i].Name == "" {
			cfg.Auth.Keys[i].Name = fmt.Sprintf("key-%d", i+1)
		}
	}

	// Supervisor defaults
	if cfg.Supervisor.MaxRestarts == 0 {
		cfg.Supervisor.MaxRestarts = DefaultMaxRestarts
	}
	if cfg.Supervisor.RestartWindow == 0 {
		cfg.Supervisor.RestartWindow = DefaultRestartWindow
	}
	if cfg.Supervisor.RestartDelay == 0 {
		cfg.Supervisor.RestartDelay = DefaultRestartDelay
	}
	if cfg.Supervisor.HeartbeatInterval == 0 {
		cfg.Supervisor.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Supervisor.ShutdownTimeout == 0 {
		cfg.Supervisor.ShutdownTimeout = cfg.Gateway.LongRunningTimeout + 5*time.Second
	}

	// Journal defaults
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.BufferSize == 0 {
		cfg.Journal.BufferSize = DefaultJournalBufferSize
	}
	if cfg.Journal.BusyTimeout == 0 {
		cfg.Journal.BusyTimeout = DefaultJournalBusyTimeout
	}
	if cfg.Journal.RetentionDays == 0 {
		cfg.Journal.RetentionDays = DefaultJournalRetentionDays
	}
	if cfg.Journal.PruneSchedule == "" {
		cfg.Journal.PruneSchedule = DefaultJournalPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cfg *Config) {
	cors := &cfg.CORS

	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"*"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"*"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
