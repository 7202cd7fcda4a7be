package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "upstream.url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateRoutes(cfg.Routes)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateSupervisor(&cfg.Supervisor)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateGateway validates gateway configuration.
func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if cfg.PortRangeStart < 1 || cfg.PortRangeStart > 65535 {
		errs = append(errs, FieldError{
			Field:   "gateway.port_range_start",
			Message: fmt.Sprintf("port %d out of range 1-65535", cfg.PortRangeStart),
		})
	}
	if cfg.PortRangeEnd < 1 || cfg.PortRangeEnd > 65535 {
		errs = append(errs, FieldError{
			Field:   "gateway.port_range_end",
			Message: fmt.Sprintf("port %d out of range 1-65535", cfg.PortRangeEnd),
		})
	}
	if cfg.PortRangeEnd < cfg.PortRangeStart {
		errs = append(errs, FieldError{
			Field:   "gateway.port_range_end",
			Message: "port range end must not be lower than start",
		})
	}

	if cfg.DefaultTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.default_timeout",
			Message: "default timeout must be positive",
		})
	}
	if cfg.LongRunningTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.long_running_timeout",
			Message: "long-running timeout must be positive",
		})
	}
	if cfg.ReadHeaderTimeout < 0 || cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway",
			Message: "server timeouts must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

// validateUpstream validates upstream configuration.
func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.URL == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.url",
			Message: "upstream URL is required",
		})
	} else if u, err := url.Parse(cfg.URL); err != nil {
		errs = append(errs, FieldError{
			Field:   "upstream.url",
			Message: fmt.Sprintf("invalid URL format: %v", err),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "upstream.url",
			Message: fmt.Sprintf("unsupported scheme %q: must be 'http' or 'https'", u.Scheme),
		})
	} else if u.Hostname() == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.url",
			Message: "upstream URL must include a host",
		})
	}

	if !strings.HasPrefix(cfg.ProbePath, "/") {
		errs = append(errs, FieldError{
			Field:   "upstream.probe_path",
			Message: "probe path must start with /",
		})
	}
	if cfg.ProbeInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.probe_interval",
			Message: "probe interval must be positive",
		})
	}
	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.probe_timeout",
			Message: "probe timeout must be positive",
		})
	} else if cfg.ProbeTimeout >= cfg.ProbeInterval {
		errs = append(errs, FieldError{
			Field:   "upstream.probe_timeout",
			Message: "probe timeout must be less than probe interval",
		})
	}
	if cfg.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "upstream.failure_threshold",
			Message: "failure threshold must be at least 1",
		})
	}
	if cfg.WaitForHealthy < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.wait_for_healthy",
			Message: "wait for healthy must be non-negative",
		})
	}

	return errs
}

var validMethods = map[string]bool{
	"ANY":               true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// validateRoutes validates the forwarding rule table.
func validateRoutes(routes []RouteConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]int)
	for i, route := range routes {
		prefix := fmt.Sprintf("routes[%d]", i)

		if !validMethods[strings.ToUpper(route.Method)] {
			errs = append(errs, FieldError{
				Field:   prefix + ".method",
				Message: fmt.Sprintf("invalid method %q", route.Method),
			})
		}
		if !strings.HasPrefix(route.Path, "/") {
			errs = append(errs, FieldError{
				Field:   prefix + ".path",
				Message: "path must start with /",
			})
		}
		if route.UpstreamPath != "" && !strings.HasPrefix(route.UpstreamPath, "/") {
			errs = append(errs, FieldError{
				Field:   prefix + ".upstream_path",
				Message: "upstream path must start with /",
			})
		}
		if route.Mode != "exact" && route.Mode != "prefix" {
			errs = append(errs, FieldError{
				Field:   prefix + ".mode",
				Message: fmt.Sprintf("invalid mode %q: must be 'exact' or 'prefix'", route.Mode),
			})
		}
		if route.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}

		key := strings.ToUpper(route.Method) + " " + route.Mode + " " + route.Path
		if first, ok := seen[key]; ok {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("duplicate of routes[%d]", first),
			})
		} else {
			seen[key] = i
		}
	}

	return errs
}

// minAccessKeyLength is the shortest accepted access key.
const minAccessKeyLength = 16

// validateAuth validates the access key gate.
func validateAuth(cfg *AuthConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	active := 0
	seen := make(map[string]int)
	for i, key := range cfg.Keys {
		prefix := fmt.Sprintf("auth.keys[%d]", i)
		if len(key.Key) < minAccessKeyLength {
			errs = append(errs, FieldError{
				Field:   prefix + ".key",
				Message: fmt.Sprintf("access key must be at least %d characters", minAccessKeyLength),
			})
		}
		if first, ok := seen[key.Key]; ok {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("duplicate of auth.keys[%d]", first),
			})
		} else {
			seen[key.Key] = i
		}
		if !key.Disabled {
			active++
		}
	}
	if active == 0 {
		errs = append(errs, FieldError{
			Field:   "auth.keys",
			Message: "at least one enabled access key is required when auth is enabled",
		})
	}
	if strings.TrimSpace(cfg.Header) == "" {
		errs = append(errs, FieldError{
			Field:   "auth.header",
			Message: "header name must not be empty",
		})
	}

	return errs
}

// validateSupervisor validates supervisor configuration.
func validateSupervisor(cfg *SupervisorConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxRestarts < 0 {
		errs = append(errs, FieldError{
			Field:   "supervisor.max_restarts",
			Message: "max restarts must be non-negative",
		})
	}
	if cfg.RestartWindow <= 0 {
		errs = append(errs, FieldError{
			Field:   "supervisor.restart_window",
			Message: "restart window must be positive",
		})
	}
	if cfg.RestartDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "supervisor.restart_delay",
			Message: "restart delay must be non-negative",
		})
	}
	if cfg.HeartbeatInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "supervisor.heartbeat_interval",
			Message: "heartbeat interval must be positive",
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "supervisor.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	return errs
}

// validateJournal validates journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "journal.path",
			Message: "journal path is required when the journal is enabled",
		})
	}
	if cfg.BufferSize < 1 {
		errs = append(errs, FieldError{
			Field:   "journal.buffer_size",
			Message: "buffer size must be at least 1",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.PruneSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "journal.prune_schedule",
			Message: "prune schedule is required when the journal is enabled",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Validate metrics prometheus path
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with / when metrics are enabled",
		})
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
