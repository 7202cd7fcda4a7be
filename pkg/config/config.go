package config

import "time"

// Config is the root configuration for the Callisto gateway.
// It is loaded once at startup and never mutated afterwards.
type Config struct {
	// Gateway contains listener and forwarding settings.
	Gateway GatewayConfig `yaml:"gateway"`

	// Upstream describes the local service being exposed.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Routes is the forwarding rule table. When empty the default
	// rule set for an Ollama-style upstream is used.
	Routes []RouteConfig `yaml:"routes"`

	// CORS contains cross-origin header settings.
	CORS CORSConfig `yaml:"cors"`

	// Auth contains the optional access key gate for forwarded routes.
	Auth AuthConfig `yaml:"auth"`

	// Supervisor contains restart and heartbeat settings.
	Supervisor SupervisorConfig `yaml:"supervisor"`

	// Journal contains the optional request journal settings.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains logging, metrics, and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatewayConfig contains settings for the public-facing listener.
type GatewayConfig struct {
	// BindHost is the interface the gateway listens on.
	// Default: "0.0.0.0"
	BindHost string `yaml:"bind_host"`

	// PortRangeStart is the first candidate port (inclusive).
	// Default: 8080
	PortRangeStart int `yaml:"port_range_start"`

	// PortRangeEnd is the last candidate port (inclusive).
	// Default: 8089
	PortRangeEnd int `yaml:"port_range_end"`

	// PortFile, when set, receives the bound port number after startup.
	// Default: "" (disabled)
	PortFile string `yaml:"port_file"`

	// ReadHeaderTimeout bounds how long reading request headers may take.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// IdleTimeout is the keep-alive idle timeout for client connections.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// DefaultTimeout is the per-request upstream deadline for ordinary routes.
	// Default: 60s
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// LongRunningTimeout is the deadline for routes marked long_running.
	// Default: 300s
	LongRunningTimeout time.Duration `yaml:"long_running_timeout"`
}

// UpstreamConfig describes the upstream service and how it is probed.
type UpstreamConfig struct {
	// URL is the base URL of the upstream, for example "http://127.0.0.1:11434".
	// Default: "http://127.0.0.1:11434"
	URL string `yaml:"url"`

	// ProbePath is the path requested by the health tracker.
	// Default: "/api/tags"
	ProbePath string `yaml:"probe_path"`

	// ProbeInterval is the time between health probes.
	// Default: 10s
	ProbeInterval time.Duration `yaml:"probe_interval"`

	// ProbeTimeout bounds a single health probe.
	// Default: 5s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// FailureThreshold is the number of consecutive failed probes that
	// turn a healthy upstream unhealthy.
	// Default: 3
	FailureThreshold int `yaml:"failure_threshold"`

	// WaitForHealthy makes startup wait up to this long for the first
	// healthy probe. Startup continues either way.
	// Default: 0 (do not wait)
	WaitForHealthy time.Duration `yaml:"wait_for_healthy"`

	// MaxIdleConns is the connection pool size for forwarded requests.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host idle connection limit.
	// Default: 100
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle upstream connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// RouteConfig is a single forwarding rule as written in configuration.
type RouteConfig struct {
	// Name identifies the rule in logs and metrics. Defaults to "METHOD path".
	Name string `yaml:"name"`

	// Method is an HTTP method or "ANY".
	Method string `yaml:"method"`

	// Path is the exact path or prefix to match.
	Path string `yaml:"path"`

	// Mode is "exact" or "prefix".
	// Default: "exact"
	Mode string `yaml:"mode"`

	// UpstreamPath is the upstream path (exact) or base path (prefix).
	// Defaults to Path.
	UpstreamPath string `yaml:"upstream_path"`

	// Timeout overrides the gateway timeout for this rule.
	Timeout time.Duration `yaml:"timeout"`

	// LongRunning selects the long-running timeout when Timeout is unset.
	LongRunning bool `yaml:"long_running"`

	// HealthGated rejects requests with 503 while the upstream is unhealthy.
	// Default: true
	HealthGated *bool `yaml:"health_gated"`
}

// IsHealthGated reports whether the rule is gated on upstream health.
func (r RouteConfig) IsHealthGated() bool {
	return r.HealthGated == nil || *r.HealthGated
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
// Headers are applied to every response the gateway produces.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["*"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["*"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to browsers.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls Access-Control-Allow-Credentials.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// AuthConfig protects forwarded routes with static access keys. The
// gateway root and health endpoints stay open.
type AuthConfig struct {
	// Enabled requires a valid key on every forwarded request.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Keys are the accepted access keys.
	Keys []AccessKeyConfig `yaml:"keys"`

	// Header is an extra header carrying the key, besides
	// "Authorization: Bearer <key>".
	// Default: "X-API-Key"
	Header string `yaml:"header"`
}

// AccessKeyConfig is one accepted access key.
type AccessKeyConfig struct {
	// Name identifies the key holder in logs.
	Name string `yaml:"name"`

	// Key is the secret value.
	Key string `yaml:"key"`

	// Disabled keeps the key configured but rejects it.
	Disabled bool `yaml:"disabled"`
}

// SupervisorConfig controls crash recovery, heartbeat, and shutdown.
type SupervisorConfig struct {
	// MaxRestarts is the number of restarts allowed inside RestartWindow.
	// Default: 3
	MaxRestarts int `yaml:"max_restarts"`

	// RestartWindow is the sliding window for the restart budget.
	// Default: 5m
	RestartWindow time.Duration `yaml:"restart_window"`

	// RestartDelay is the pause before a crashed listener is restarted.
	// Default: 1s
	RestartDelay time.Duration `yaml:"restart_delay"`

	// HeartbeatInterval is the time between heartbeat log records.
	// Default: 5m
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// ShutdownTimeout bounds how long in-flight requests may drain.
	// It should cover the long-running route timeout.
	// Default: 305s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// JournalConfig configures the SQLite request journal.
type JournalConfig struct {
	// Enabled turns the journal on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// BufferSize is the async recorder queue length. Entries beyond it are dropped.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// RetentionDays is how long entries are kept. 0 keeps everything.
	// Default: 7
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for the retention job.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks bearer tokens and API keys in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "callisto"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
