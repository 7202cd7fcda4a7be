package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "unauthorized", err: auth.ErrMissingKey, want: http.StatusUnauthorized},
		{name: "route not found", err: &routing.RouteNotFoundError{Method: "GET", Path: "/x"}, want: http.StatusNotFound},
		{name: "unavailable", err: &UnavailableError{Upstream: "127.0.0.1:11434"}, want: http.StatusServiceUnavailable},
		{name: "timeout", err: &TimeoutError{Timeout: time.Second, Err: context.DeadlineExceeded}, want: http.StatusGatewayTimeout},
		{name: "transport", err: &TransportError{Upstream: "127.0.0.1:11434", Err: errors.New("refused")}, want: http.StatusBadGateway},
		{name: "wrapped timeout", err: fmt.Errorf("forward: %w", &TimeoutError{Timeout: time.Second}), want: http.StatusGatewayTimeout},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	if got := errorKind(&TimeoutError{Err: context.DeadlineExceeded}); got != "timeout" {
		t.Errorf("errorKind(timeout) = %s", got)
	}
	if got := errorKind(&TransportError{Err: context.Canceled}); got != "canceled" {
		t.Errorf("errorKind(canceled) = %s", got)
	}
	if got := errorKind(&TransportError{Err: errors.New("reset")}); got != "transport" {
		t.Errorf("errorKind(transport) = %s", got)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteError(rec, &UnavailableError{Upstream: "127.0.0.1:11434"})
	if err != nil {
		t.Fatalf("WriteError() error = %v", err)
	}

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got, want := rec.Body.String(), "{\"error\":\"upstream 127.0.0.1:11434 unavailable\"}\n"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}
