package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "CALLISTO_"

// LoadConfig loads configuration from a YAML file at the specified path.
// An empty path yields the default configuration. The file is decoded on
// top of the defaults, missing fields are filled in, and the result is
// validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g., CALLISTO_UPSTREAM_URL).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Decode YAML from file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// decode strictly decodes YAML into cfg so that misspelled keys are reported.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Gateway overrides
	envString("GATEWAY_BIND_HOST", &cfg.Gateway.BindHost)
	envInt("GATEWAY_PORT_RANGE_START", &cfg.Gateway.PortRangeStart)
	envInt("GATEWAY_PORT_RANGE_END", &cfg.Gateway.PortRangeEnd)
	envString("GATEWAY_PORT_FILE", &cfg.Gateway.PortFile)
	envDuration("GATEWAY_DEFAULT_TIMEOUT", &cfg.Gateway.DefaultTimeout)
	envDuration("GATEWAY_LONG_RUNNING_TIMEOUT", &cfg.Gateway.LongRunningTimeout)

	// Upstream overrides
	envString("UPSTREAM_URL", &cfg.Upstream.URL)
	envString("UPSTREAM_PROBE_PATH", &cfg.Upstream.ProbePath)
	envDuration("UPSTREAM_PROBE_INTERVAL", &cfg.Upstream.ProbeInterval)
	envDuration("UPSTREAM_PROBE_TIMEOUT", &cfg.Upstream.ProbeTimeout)
	envInt("UPSTREAM_FAILURE_THRESHOLD", &cfg.Upstream.FailureThreshold)
	envDuration("UPSTREAM_WAIT_FOR_HEALTHY", &cfg.Upstream.WaitForHealthy)

	// CORS overrides
	envBool("CORS_ENABLED", &cfg.CORS.Enabled)
	if val := os.Getenv(EnvPrefix + "CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.CORS.AllowedOrigins = splitList(val)
	}

	// Auth overrides
	envBool("AUTH_ENABLED", &cfg.Auth.Enabled)
	if val := os.Getenv(EnvPrefix + "AUTH_KEYS"); val != "" {
		cfg.Auth.Keys = parseAccessKeys(val)
	}

	// Supervisor overrides
	envInt("SUPERVISOR_MAX_RESTARTS", &cfg.Supervisor.MaxRestarts)
	envDuration("SUPERVISOR_RESTART_WINDOW", &cfg.Supervisor.RestartWindow)
	envDuration("SUPERVISOR_HEARTBEAT_INTERVAL", &cfg.Supervisor.HeartbeatInterval)
	envDuration("SUPERVISOR_SHUTDOWN_TIMEOUT", &cfg.Supervisor.ShutdownTimeout)

	// Journal overrides
	envBool("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	envString("JOURNAL_PATH", &cfg.Journal.Path)
	envInt("JOURNAL_RETENTION_DAYS", &cfg.Journal.RetentionDays)
	envString("JOURNAL_PRUNE_SCHEDULE", &cfg.Journal.PruneSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAccessKeys parses "name=key,name=key". Entries without a name get
// one assigned by ApplyDefaults.
func parseAccessKeys(val string) []AccessKeyConfig {
	var keys []AccessKeyConfig
	for _, item := range splitList(val) {
		name, key, found := strings.Cut(item, "=")
		if !found {
			name, key = "", item
		}
		keys = append(keys, AccessKeyConfig{Name: name, Key: key})
	}
	return keys
}
