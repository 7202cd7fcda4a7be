package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// TrackerConfig controls the probe loop.
type TrackerConfig struct {
	ProbePath        string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold int
}

// ProbeRecorder receives probe outcomes. *metrics.Collector implements it.
type ProbeRecorder interface {
	RecordProbe(success bool, latency time.Duration)
	SetUpstreamStatus(status string)
}

// Tracker probes the upstream on a fixed interval and publishes the
// resulting State. The probe loop is the only writer; Current may be
// called from any goroutine.
type Tracker struct {
	target   Target
	cfg      TrackerConfig
	client   *http.Client
	logger   *slog.Logger
	recorder ProbeRecorder

	state atomic.Pointer[State]

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewTracker creates a tracker for target. client may be nil, in which
// case a client without redirects or proxies is used. recorder may be nil.
func NewTracker(target Target, cfg TrackerConfig, client *http.Client, logger *slog.Logger, recorder ProbeRecorder) *Tracker {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}

	t := &Tracker{
		target:   target,
		cfg:      cfg,
		client:   client,
		logger:   logger.With("component", "upstream.tracker", "upstream", target.Address()),
		recorder: recorder,
	}
	t.state.Store(&State{Status: StatusUnknown})
	if recorder != nil {
		recorder.SetUpstreamStatus(string(StatusUnknown))
	}
	return t
}

// Target returns the upstream being tracked.
func (t *Tracker) Target() Target {
	return t.target
}

// Current returns the latest health snapshot.
func (t *Tracker) Current() State {
	return *t.state.Load()
}

// Start launches the probe loop. The first probe runs immediately.
// Calling Start on a running tracker is a no-op.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true

	go t.loop(ctx, t.done)
}

// Stop ends the probe loop and waits for it to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.running = false
	t.mu.Unlock()

	cancel()
	<-done
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		t.ProbeOnce(ctx)

		if ctx.Err() != nil {
			return
		}
		timer.Reset(t.cfg.Interval)
	}
}

// ProbeOnce performs a single probe, applies it to the current state, and
// returns the new snapshot. It must not run concurrently with the probe
// loop of a started tracker.
func (t *Tracker) ProbeOnce(ctx context.Context) State {
	start := time.Now()
	err := t.probe(ctx)
	latency := time.Since(start)

	if err != nil && ctx.Err() != nil {
		// Shutdown interrupted the probe; it says nothing about the upstream.
		return t.Current()
	}

	prev := t.Current()
	next := nextState(prev, err == nil, err, time.Now(), t.cfg.FailureThreshold)
	t.state.Store(&next)

	if t.recorder != nil {
		t.recorder.RecordProbe(err == nil, latency)
		t.recorder.SetUpstreamStatus(string(next.Status))
	}

	t.logTransition(prev, next, latency)
	return next
}

func (t *Tracker) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.target.URL(t.cfg.ProbePath, ""), nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("probe timed out after %s", t.cfg.Timeout)
		}
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}

func (t *Tracker) logTransition(prev, next State, latency time.Duration) {
	if prev.Status == next.Status {
		if next.Status != StatusHealthy && next.LastError != "" {
			t.logger.Debug("upstream probe failed",
				"status", next.Status,
				"consecutive_failures", next.ConsecutiveFailures,
				"error", next.LastError,
			)
		}
		return
	}

	switch next.Status {
	case StatusHealthy:
		t.logger.Info("upstream healthy",
			"previous", prev.Status,
			"latency_ms", latency.Milliseconds(),
		)
	case StatusUnhealthy:
		t.logger.Warn("upstream unhealthy",
			"previous", prev.Status,
			"consecutive_failures", next.ConsecutiveFailures,
			"error", next.LastError,
		)
	}
}

// WaitForStatus polls Current until it reports want or ctx ends. It only
// reads state; the probe loop must be running for it to change.
func (t *Tracker) WaitForStatus(ctx context.Context, want Status, poll time.Duration) error {
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if t.Current().Status == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("upstream did not become %s: %w", want, ctx.Err())
		case <-ticker.C:
		}
	}
}
