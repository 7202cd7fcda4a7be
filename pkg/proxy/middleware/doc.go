// Package middleware provides the HTTP middleware wrapped around the
// gateway router.
//
// # Middleware Chain
//
// The server installs the middleware in this order, outermost first:
//
//	Recovery -> RequestID -> Logging -> CORS -> router
//
// Recovery sits outside everything so a panic anywhere still produces a
// JSON 500. RequestID runs before Logging so that the completion log line
// carries the request ID. CORS is innermost so that its headers are
// present on every response the router writes, including 404 and 503
// errors, and it answers OPTIONS preflights itself with 204.
//
// # Request ID
//
// RequestIDMiddleware generates a UUID v4 for each request unless the
// client sent a usable X-Request-ID:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is stored with logging.WithRequestID, returned in the response
// header, and included in every log record written with the request
// context.
//
// # Streaming
//
// The logging response writer implements http.Flusher and Unwrap, so
// handlers can flush streamed upstream bodies through it.
package middleware
