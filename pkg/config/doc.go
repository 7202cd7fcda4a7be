// Package config provides configuration management for Callisto.
//
// Configuration is read once at startup from an optional YAML file and
// never changes afterwards. The file is decoded on top of the defaults
// returned by Default, so an empty or missing section keeps its defaults.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("callisto.yaml")
//
// Passing an empty path yields the defaults, which expose a local Ollama
// server at http://127.0.0.1:11434 on the first free port in 8080-8089.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CALLISTO_SECTION_FIELD.
// For example:
//
//   - CALLISTO_UPSTREAM_URL overrides upstream.url
//   - CALLISTO_GATEWAY_PORT_RANGE_START overrides gateway.port_range_start
//   - CALLISTO_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Validation
//
// All configuration is validated during loading. Every failing field is
// collected into a single ValidationError.
package config
