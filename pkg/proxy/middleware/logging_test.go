package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/callisto/pkg/telemetry/logging"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
	})
	wrapped := RequestIDMiddleware(LoggingMiddleware(logger)(handler))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("log output is not a single JSON record: %v\n%s", err, buf.String())
	}

	if record["level"] != slog.LevelError.String() {
		t.Errorf("level = %v, want ERROR for 5xx", record["level"])
	}
	if record["status"] != float64(http.StatusServiceUnavailable) {
		t.Errorf("status = %v, want 503", record["status"])
	}
	if record["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", record["request_id"])
	}
	if record["bytes"] != float64(len(`{"error":"upstream unavailable"}`)) {
		t.Errorf("bytes = %v", record["bytes"])
	}
}

func TestResponseWriter_FlushAndUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	if err := http.NewResponseController(rw).Flush(); err != nil {
		t.Fatalf("Flush() through ResponseController error = %v", err)
	}
	if !rec.Flushed {
		t.Error("underlying recorder was not flushed")
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap() should return the wrapped writer")
	}
	if rw.statusCode != http.StatusOK || !rw.written {
		t.Error("Flush before WriteHeader should commit a 200")
	}
}
