package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
)

// Common forwarding errors that can be checked with errors.Is().
var (
	// ErrUpstreamUnavailable is returned when a health-gated rule is hit
	// while the upstream is unhealthy. No connection is attempted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamTimeout is returned when the upstream exchange exceeds
	// the rule's timeout.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamTransport is returned when the upstream cannot be reached
	// or the connection fails mid-exchange.
	ErrUpstreamTransport = errors.New("upstream transport failure")
)

// TimeoutError is returned when the upstream did not complete in time.
type TimeoutError struct {
	// Timeout is the deadline that was exceeded.
	Timeout time.Duration

	// Err is the underlying client error.
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream request timed out after %s", e.Timeout)
}

// Is implements error matching for errors.Is().
func (e *TimeoutError) Is(target error) bool {
	return target == ErrUpstreamTimeout
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the upstream connection fails.
type TransportError struct {
	// Upstream is the upstream address.
	Upstream string

	// Err is the underlying client error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream %s request failed: %v", e.Upstream, e.Err)
}

// Is implements error matching for errors.Is().
func (e *TransportError) Is(target error) bool {
	return target == ErrUpstreamTransport
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnavailableError is returned for health-gated rules while the upstream
// is unhealthy.
type UnavailableError struct {
	// Upstream is the upstream address.
	Upstream string

	// LastError is the most recent probe failure, if any.
	LastError string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable", e.Upstream)
}

// Is implements error matching for errors.Is().
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// StatusFor maps an error to the HTTP status the gateway answers with.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, routing.ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstreamTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorKind is the metrics label for an upstream failure.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
