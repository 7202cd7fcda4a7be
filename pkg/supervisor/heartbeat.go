package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/callisto/pkg/server"
)

// HeartbeatRecorder counts heartbeats. *metrics.Collector implements it.
type HeartbeatRecorder interface {
	RecordHeartbeat(ok bool)
}

// Heartbeat periodically logs the upstream health snapshot and checks
// that the gateway still answers on its own root endpoint. It has no
// effect on routing.
type Heartbeat struct {
	interval time.Duration
	selfURL  string
	health   server.HealthReader
	client   *http.Client
	recorder HeartbeatRecorder
	logger   *slog.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	started time.Time
	beats   atomic.Int64
}

// NewHeartbeat creates a heartbeat that fires every interval. selfURL is
// the gateway root, for example "http://127.0.0.1:8080/". recorder may be
// nil.
func NewHeartbeat(interval time.Duration, selfURL string, health server.HealthReader, client *http.Client, recorder HeartbeatRecorder, logger *slog.Logger) *Heartbeat {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Heartbeat{
		interval: interval,
		selfURL:  selfURL,
		health:   health,
		client:   client,
		recorder: recorder,
		logger:   logger.With("component", "supervisor.heartbeat"),
		cron:     cron.New(),
	}
}

// Start schedules the heartbeat. A zero interval disables it. Once ctx is
// cancelled scheduled beats are skipped.
func (h *Heartbeat) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}
	if h.interval <= 0 {
		h.logger.Info("heartbeat disabled")
		return nil
	}

	spec := fmt.Sprintf("@every %s", h.interval)
	if _, err := h.cron.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		_ = h.Beat(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}

	h.started = time.Now()
	h.cron.Start()
	h.running = true

	h.logger.Info("heartbeat started", "interval", h.interval.String())
	return nil
}

// Stop cancels future heartbeats and waits for a running one to finish.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		<-h.cron.Stop().Done()
		h.running = false
	}
}

// Beats returns the number of heartbeats emitted.
func (h *Heartbeat) Beats() int64 {
	return h.beats.Load()
}

// Beat emits one heartbeat. It returns the self-probe error, if any.
func (h *Heartbeat) Beat(ctx context.Context) error {
	n := h.beats.Add(1)
	state := h.health.Current()

	err := h.selfProbe(ctx)
	if h.recorder != nil {
		h.recorder.RecordHeartbeat(err == nil)
	}

	attrs := []any{
		"beat", n,
		"upstream_status", string(state.Status),
		"consecutive_failures", state.ConsecutiveFailures,
	}
	if !state.LastChecked.IsZero() {
		attrs = append(attrs, "last_checked", state.LastChecked)
	}
	if state.LastError != "" {
		attrs = append(attrs, "last_error", state.LastError)
	}
	if !h.started.IsZero() {
		attrs = append(attrs, "uptime", time.Since(h.started).Round(time.Second).String())
	}

	if err != nil {
		h.logger.WarnContext(ctx, "heartbeat self-probe failed", append(attrs, "error", err)...)
		return err
	}
	h.logger.InfoContext(ctx, "heartbeat", attrs...)
	return nil
}

func (h *Heartbeat) selfProbe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.selfURL, nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway root returned %d", resp.StatusCode)
	}
	return nil
}
