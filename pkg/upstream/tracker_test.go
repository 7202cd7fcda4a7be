package upstream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRecorder struct {
	mu       sync.Mutex
	probes   []bool
	statuses []string
}

func (f *fakeRecorder) RecordProbe(success bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, success)
}

func (f *fakeRecorder) SetUpstreamStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTracker(t *testing.T, url string, recorder ProbeRecorder) *Tracker {
	t.Helper()

	target, err := ParseTarget(url)
	if err != nil {
		t.Fatalf("ParseTarget() error = %v", err)
	}
	return NewTracker(target, TrackerConfig{
		ProbePath:        "/api/tags",
		Interval:         20 * time.Millisecond,
		Timeout:          200 * time.Millisecond,
		FailureThreshold: 3,
	}, nil, testLogger(), recorder)
}

func TestTracker_InitialStateUnknown(t *testing.T) {
	tracker := newTestTracker(t, "http://127.0.0.1:1", nil)

	if got := tracker.Current().Status; got != StatusUnknown {
		t.Errorf("initial status = %s, want %s", got, StatusUnknown)
	}
}

func TestTracker_ProbeConvergence(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("probe path = %s, want /api/tags", r.URL.Path)
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer upstream.Close()

	recorder := &fakeRecorder{}
	tracker := newTestTracker(t, upstream.URL, recorder)
	ctx := context.Background()

	if got := tracker.ProbeOnce(ctx).Status; got != StatusHealthy {
		t.Fatalf("after first success status = %s, want healthy", got)
	}

	healthy.Store(false)
	for i := 1; i <= 2; i++ {
		state := tracker.ProbeOnce(ctx)
		if state.Status != StatusHealthy {
			t.Fatalf("after %d failures status = %s, want healthy", i, state.Status)
		}
		if state.ConsecutiveFailures != i {
			t.Errorf("ConsecutiveFailures = %d, want %d", state.ConsecutiveFailures, i)
		}
	}

	state := tracker.ProbeOnce(ctx)
	if state.Status != StatusUnhealthy {
		t.Fatalf("after 3 failures status = %s, want unhealthy", state.Status)
	}
	if state.LastError == "" {
		t.Error("LastError should describe the failed probe")
	}

	healthy.Store(true)
	state = tracker.ProbeOnce(ctx)
	if state.Status != StatusHealthy || state.ConsecutiveFailures != 0 {
		t.Fatalf("after recovery state = %+v, want healthy with 0 failures", state)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.probes) != 5 {
		t.Errorf("recorded %d probes, want 5", len(recorder.probes))
	}
	if last := recorder.statuses[len(recorder.statuses)-1]; last != string(StatusHealthy) {
		t.Errorf("last recorded status = %s, want healthy", last)
	}
}

func TestTracker_ProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	tracker := newTestTracker(t, upstream.URL, nil)

	start := time.Now()
	state := tracker.ProbeOnce(context.Background())
	elapsed := time.Since(start)

	if state.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", state.Status)
	}
	if elapsed > 2*time.Second {
		t.Errorf("probe took %v, want it bounded by the probe timeout", elapsed)
	}
}

func TestTracker_ConnectionRefused(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	tracker := newTestTracker(t, url, nil)
	state := tracker.ProbeOnce(context.Background())

	if state.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", state.Status)
	}
	if state.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", state.ConsecutiveFailures)
	}
}

func TestTracker_StartStop(t *testing.T) {
	var probes atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	tracker := newTestTracker(t, upstream.URL, nil)
	tracker.Start(context.Background())
	tracker.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tracker.WaitForStatus(ctx, StatusHealthy, 5*time.Millisecond); err != nil {
		t.Fatalf("WaitForStatus() error = %v", err)
	}

	tracker.Stop()
	tracker.Stop()

	after := probes.Load()
	time.Sleep(100 * time.Millisecond)
	if got := probes.Load(); got != after {
		t.Errorf("probes continued after Stop: %d -> %d", after, got)
	}
}

func TestTracker_WaitForStatusTimeout(t *testing.T) {
	tracker := newTestTracker(t, "http://127.0.0.1:1", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := tracker.WaitForStatus(ctx, StatusHealthy, 10*time.Millisecond); err == nil {
		t.Error("WaitForStatus() expected error when status never changes")
	}
	if got := tracker.Current().Status; got != StatusUnknown {
		t.Errorf("WaitForStatus changed state to %s", got)
	}
}
