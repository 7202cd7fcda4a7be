package routing

import (
	"errors"
	"fmt"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrRouteNotFound is returned when no rule matches a request.
	ErrRouteNotFound = errors.New("route not found")

	// ErrDuplicateRule is returned when two rules share method, mode, and pattern.
	ErrDuplicateRule = errors.New("duplicate route rule")

	// ErrInvalidRule is returned for rules with an unknown mode, method, or pattern.
	ErrInvalidRule = errors.New("invalid route rule")
)

// RouteNotFoundError is returned when no rule matches the request.
type RouteNotFoundError struct {
	// Method is the request method.
	Method string

	// Path is the request path.
	Path string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route for %s %s", e.Method, e.Path)
}

// Is implements error matching for errors.Is().
func (e *RouteNotFoundError) Is(target error) bool {
	return target == ErrRouteNotFound
}

// RuleError describes a rule rejected by NewTable.
type RuleError struct {
	// Rule is the name of the offending rule.
	Rule string

	// Reason explains the rejection.
	Reason string

	// Err is ErrDuplicateRule or ErrInvalidRule.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("route %q: %s", e.Rule, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *RuleError) Unwrap() error {
	return e.Err
}
