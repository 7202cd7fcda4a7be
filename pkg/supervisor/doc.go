// Package supervisor runs the gateway for the lifetime of the process.
//
// Run acquires the listening port, starts the upstream health tracker,
// opens the optional journal, builds the router, and serves. If the
// accept loop dies it re-binds the same port and serves again, up to
// supervisor.max_restarts times per supervisor.restart_window. A cron
// scheduled heartbeat logs the upstream snapshot and self-probes the
// gateway root.
//
// Cancelling the context passed to Run closes the listener and waits for
// in-flight requests, bounded by supervisor.shutdown_timeout.
package supervisor
