// Callisto exposes a local HTTP service, such as a model server on
// 127.0.0.1:11434, through a single forwarding gateway that a public
// tunnel can point at.
//
// It provides:
//   - Port acquisition from a configured range
//   - Health-gated forwarding with per-route timeouts and streaming
//   - Crash restarts within a budget, a liveness heartbeat, and graceful drain
//   - An optional SQLite journal of completed requests
//
// Usage:
//
//	# Start the gateway with defaults
//	callisto run
//
//	# Start with a configuration file
//	callisto run --config /etc/callisto/config.yaml
//
//	# Print the effective route table
//	callisto routes
//
//	# Probe the upstream once
//	callisto probe
//
//	# Show recent journal entries
//	callisto journal query --since 1h
package main

import "os"

func main() {
	os.Exit(Execute())
}
