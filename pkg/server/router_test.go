package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/journal"
	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/upstream"
)

type staticHealth struct {
	status upstream.Status
}

func (s staticHealth) Current() upstream.State {
	return upstream.State{Status: s.status, LastError: "probe returned status 500"}
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (m *memoryJournal) Record(e journal.Entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return true
}

// countingUpstream is an httptest server that counts accepted connections.
type countingUpstream struct {
	*httptest.Server
	conns atomic.Int32
}

func newCountingUpstream(h http.Handler) *countingUpstream {
	cu := &countingUpstream{}
	cu.Server = httptest.NewUnstartedServer(h)
	cu.Server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			cu.conns.Add(1)
		}
	}
	cu.Server.Start()
	return cu
}

type fixture struct {
	handler   http.Handler
	upstream  *countingUpstream
	collector *metrics.Collector
	journal   *memoryJournal
}

func newFixture(t *testing.T, status upstream.Status, rules ...routing.Rule) *fixture {
	t.Helper()
	return buildFixture(t, status, nil, rules)
}

func buildFixture(t *testing.T, status upstream.Status, mutate func(*Deps), rules []routing.Rule) *fixture {
	t.Helper()

	up := newCountingUpstream(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "https://upstream.invalid")
		w.Header().Set("X-Seen-Key", r.Header.Get("X-API-Key"))
		io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
	}))
	t.Cleanup(up.Close)

	target, err := upstream.ParseTarget(up.URL)
	if err != nil {
		t.Fatalf("ParseTarget() error = %v", err)
	}

	if len(rules) == 0 {
		rules = []routing.Rule{
			{Name: "tags", Method: "GET", Pattern: "/api/tags", Mode: routing.ModeExact, HealthGated: true},
			{Name: "ps", Method: "GET", Pattern: "/api/ps", Mode: routing.ModeExact, HealthGated: false},
			{Name: "openai", Method: routing.MethodAny, Pattern: "/v1/", Mode: routing.ModePrefix, UpstreamPath: "/v1/", HealthGated: true},
		}
	}
	table, err := routing.NewTable(rules...)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, nil)
	checker := health.New(time.Second)
	j := &memoryJournal{}

	forwarder := proxy.NewForwarder(target, proxy.ForwarderConfig{
		DefaultTimeout:     5 * time.Second,
		LongRunningTimeout: 10 * time.Second,
	}, logger, collector, nil)

	deps := Deps{
		Target:      target,
		Table:       table,
		Forwarder:   forwarder,
		Health:      staticHealth{status: status},
		MetricsPath: "/metrics",
		Metrics:     collector,
		Checker:     checker,
		Journal:     j,
		Build:       BuildInfo{Version: "1.2.3"},
		Logger:      logger,
	}
	if mutate != nil {
		mutate(&deps)
	}
	handler := NewRouter(deps)

	return &fixture{handler: handler, upstream: up, collector: collector, journal: j}
}

func (f *fixture) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func (f *fixture) scrape() string {
	return f.do(http.MethodGet, "/metrics").Body.String()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q is not JSON: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestRouter_Summary(t *testing.T) {
	f := newFixture(t, upstream.StatusUnhealthy)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := f.do(method, "/")
		if rec.Code != http.StatusOK {
			t.Errorf("%s / status = %d, want 200", method, rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("%s / Access-Control-Allow-Origin = %q", method, got)
		}
	}

	rec := f.do(http.MethodGet, "/")
	var summary map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v", err)
	}
	if summary["status"] != "ok" || summary["upstream"] != strings.TrimPrefix(f.upstream.URL, "http://") {
		t.Errorf("summary = %v", summary)
	}
	if n := f.upstream.conns.Load(); n != 0 {
		t.Errorf("summary opened %d upstream connections", n)
	}
}

func TestRouter_RouteNotFound(t *testing.T) {
	f := newFixture(t, upstream.StatusHealthy)

	rec := f.do(http.MethodGet, "/unknown")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "/unknown") {
		t.Errorf("error = %q", msg)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("404 response is missing CORS headers")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("404 response is missing X-Request-ID")
	}

	if len(f.journal.entries) != 1 || f.journal.entries[0].Status != http.StatusNotFound || f.journal.entries[0].Route != "" {
		t.Errorf("journal = %+v", f.journal.entries)
	}
}

func TestRouter_MethodMismatchIsNotFound(t *testing.T) {
	f := newFixture(t, upstream.StatusHealthy)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/tags"},
		{http.MethodPost, "/"},
		{http.MethodDelete, "/version"},
	} {
		rec := f.do(tc.method, tc.path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRouter_UnhealthyShortCircuit(t *testing.T) {
	f := newFixture(t, upstream.StatusUnhealthy)

	rec := f.do(http.MethodGet, "/api/tags")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "unavailable") {
		t.Errorf("error = %q", msg)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("503 response is missing CORS headers")
	}
	if n := f.upstream.conns.Load(); n != 0 {
		t.Errorf("gated request opened %d upstream connections, want 0", n)
	}
	if body := f.scrape(); !strings.Contains(body, `callisto_gateway_upstream_errors_total{kind="unavailable"} 1`) {
		t.Errorf("metrics missing unavailable error count:\n%s", body)
	}
}

func TestRouter_UngatedRuleForwardsWhileUnhealthy(t *testing.T) {
	f := newFixture(t, upstream.StatusUnhealthy)

	rec := f.do(http.MethodGet, "/api/ps")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f.upstream.conns.Load() == 0 {
		t.Error("ungated rule should reach the upstream")
	}
}

func TestRouter_UnknownHealthForwards(t *testing.T) {
	f := newFixture(t, upstream.StatusUnknown)

	if rec := f.do(http.MethodGet, "/api/tags"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 while health is unknown", rec.Code)
	}
}

func TestRouter_Forward(t *testing.T) {
	f := newFixture(t, upstream.StatusHealthy)

	rec := f.do(http.MethodPost, "/v1/chat/completions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != `{"path":"/v1/chat/completions"}` {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, gateway value should win", got)
	}

	if body := f.scrape(); !strings.Contains(body, `callisto_gateway_requests_total{code="200",method="POST",route="openai"} 1`) {
		t.Errorf("metrics missing forwarded request:\n%s", body)
	}

	if len(f.journal.entries) != 1 {
		t.Fatalf("journal has %d entries, want 1", len(f.journal.entries))
	}
	e := f.journal.entries[0]
	if e.Route != "openai" || e.Status != 200 || e.BytesOut != int64(rec.Body.Len()) || e.RequestID == "" {
		t.Errorf("journal entry = %+v", e)
	}
}

func TestRouter_Preflight(t *testing.T) {
	f := newFixture(t, upstream.StatusUnhealthy)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/completions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if f.upstream.conns.Load() != 0 {
		t.Error("preflight should not reach the upstream")
	}
}

func TestRouter_GatewayEndpoints(t *testing.T) {
	f := newFixture(t, upstream.StatusHealthy)

	if rec := f.do(http.MethodGet, LivenessPath); rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, ReadinessPath); rec.Code != http.StatusOK {
		t.Errorf("readiness status = %d", rec.Code)
	}

	rec := f.do(http.MethodGet, VersionPath)
	var info health.VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil || info.Version != "1.2.3" {
		t.Errorf("version = %+v, err = %v", info, err)
	}

	f.do(http.MethodGet, "/api/tags")
	rec = f.do(http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "callisto_gateway_requests_total") {
		t.Errorf("metrics status = %d, body missing requests_total", rec.Code)
	}
}

func TestRouter_AccessKeys(t *testing.T) {
	const key = "0123456789abcdef0123"
	f := buildFixture(t, upstream.StatusHealthy, func(d *Deps) {
		d.Auth = auth.FromConfig(config.AuthConfig{
			Enabled: true,
			Header:  "X-API-Key",
			Keys:    []config.AccessKeyConfig{{Name: "laptop", Key: key}},
		})
	}, nil)

	rec := f.do(http.MethodGet, "/api/tags")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec); got == "" {
		t.Error("401 body has no error message")
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("401 is missing WWW-Authenticate")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("401 is missing CORS headers")
	}
	if f.upstream.conns.Load() != 0 {
		t.Error("unauthenticated request reached the upstream")
	}

	if rec := f.do(http.MethodGet, "/"); rec.Code != http.StatusOK {
		t.Errorf("summary status = %d, want 200 without a key", rec.Code)
	}
	if rec := f.do(http.MethodGet, LivenessPath); rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200 without a key", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	req.Header.Set("X-API-Key", key)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with key = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Seen-Key"); got != "" {
		t.Errorf("upstream saw access key %q", got)
	}

	if len(f.journal.entries) != 2 || f.journal.entries[0].Status != http.StatusUnauthorized {
		t.Errorf("journal entries = %+v", f.journal.entries)
	}
}
