package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/callisto/pkg/proxy/types"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a
// 500 response with a JSON error body. The panic and stack trace are
// logged; neither is sent to the client. http.ErrAbortHandler is re-raised
// so the server can abort the connection as intended.
//
// Example usage:
//
//	handler = RecoveryMiddleware(logger)(handler)
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)

				// Encode error response (ignore encoding errors at this point)
				_ = json.NewEncoder(w).Encode(types.NewErrorResponse("internal gateway error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
