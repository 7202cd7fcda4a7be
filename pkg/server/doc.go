// Package server provides the gateway's HTTP handler and server.
//
// NewRouter assembles a chi router with the middleware chain from the
// middleware package, the gateway's own endpoints, and a catch-all that
// dispatches through the routing table to the forwarder. Server wraps
// http.Server around an already-bound listener so the supervisor controls
// port selection and restarts.
package server
