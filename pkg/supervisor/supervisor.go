package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/journal"
	"mercator-hq/callisto/pkg/listener"
	"mercator-hq/callisto/pkg/proxy"
	"mercator-hq/callisto/pkg/proxy/middleware"
	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/telemetry/tracing"
	"mercator-hq/callisto/pkg/upstream"
)

// waitPoll is how often startup re-reads the tracker while waiting for a
// healthy upstream.
const waitPoll = 100 * time.Millisecond

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
// Defaults to a fresh registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Supervisor) {
		s.registry = registry
	}
}

// WithProbeClient sets the HTTP client used for upstream health probes.
func WithProbeClient(client *http.Client) Option {
	return func(s *Supervisor) {
		s.probeClient = client
	}
}

// WithListenerHook wraps the listener handed to every Serve call.
func WithListenerHook(hook func(net.Listener) net.Listener) Option {
	return func(s *Supervisor) {
		s.listenerHook = hook
	}
}

// WithBuildInfo sets the version reported by the gateway.
func WithBuildInfo(info server.BuildInfo) Option {
	return func(s *Supervisor) {
		s.build = info
	}
}

// Supervisor owns the gateway lifecycle: startup ordering, crash
// restarts, the heartbeat, and graceful drain. A Supervisor runs once.
type Supervisor struct {
	cfg          *config.Config
	logger       *slog.Logger
	registry     *prometheus.Registry
	probeClient  *http.Client
	listenerHook func(net.Listener) net.Listener
	build        server.BuildInfo
	now          func() time.Time

	mu      sync.Mutex
	started bool
	addr    string
	ready   chan struct{}
	tracker *upstream.Tracker
}

// New creates a supervisor for cfg. cfg must already be validated.
func New(cfg *config.Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:   cfg,
		now:   time.Now,
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	return s
}

// Ready is closed once the gateway is accepting connections.
func (s *Supervisor) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound host:port, or "" before Ready.
func (s *Supervisor) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Health returns the current upstream snapshot. It reports unknown
// before the tracker has started.
func (s *Supervisor) Health() upstream.State {
	s.mu.Lock()
	t := s.tracker
	s.mu.Unlock()

	if t == nil {
		return upstream.State{Status: upstream.StatusUnknown}
	}
	return t.Current()
}

// Run starts the gateway and blocks until ctx is cancelled, a startup
// step fails, or the listener crashes more often than the restart budget
// allows.
//
// Startup order is listener, health tracker, journal, router, serve. A
// failed step returns a *StartupError. Cancelling ctx stops the tracker,
// closes the listener, and lets in-flight requests finish within the
// shutdown timeout; Run then returns nil.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("supervisor already started")
	}
	s.started = true
	s.mu.Unlock()

	cfg := s.cfg
	logger := s.logger.With("component", "supervisor")

	target, err := upstream.ParseTarget(cfg.Upstream.URL)
	if err != nil {
		return &StartupError{Step: StepConfig, Err: err}
	}

	table, err := routing.TableFromConfig(cfg)
	if err != nil {
		return &StartupError{Step: StepConfig, Err: err}
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, s.build.Version)
	if err != nil {
		return &StartupError{Step: StepTracing, Err: err}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, s.registry)

	binding, err := listener.Acquire(ctx, cfg.Gateway.BindHost, listener.PortRange{
		Start: cfg.Gateway.PortRangeStart,
		End:   cfg.Gateway.PortRangeEnd,
	})
	if err != nil {
		return &StartupError{Step: StepListener, Err: err}
	}
	defer binding.Close()

	collector.SetListenerPort(binding.Port)
	logger.Info("listener acquired", "address", binding.Addr(), "port", binding.Port)

	if cfg.Gateway.PortFile != "" {
		if err := binding.WritePortFile(cfg.Gateway.PortFile); err != nil {
			return &StartupError{Step: StepListener, Err: err}
		}
	}

	tracker := upstream.NewTracker(target, upstream.TrackerConfig{
		ProbePath:        cfg.Upstream.ProbePath,
		Interval:         cfg.Upstream.ProbeInterval,
		Timeout:          cfg.Upstream.ProbeTimeout,
		FailureThreshold: cfg.Upstream.FailureThreshold,
	}, s.probeClient, s.logger, collector)
	tracker.Start(ctx)
	defer tracker.Stop()

	s.mu.Lock()
	s.tracker = tracker
	s.mu.Unlock()

	if wait := cfg.Upstream.WaitForHealthy; wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		err := tracker.WaitForStatus(waitCtx, upstream.StatusHealthy, waitPoll)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("upstream not healthy yet, continuing startup",
				"upstream", target.String(),
				"waited", wait.String(),
				"status", string(tracker.Current().Status),
			)
		}
	}

	checker := health.New(cfg.Upstream.ProbeTimeout)
	checker.RegisterCheck("upstream", func(ctx context.Context) error {
		state := tracker.Current()
		if state.Status != upstream.StatusHealthy {
			if state.LastError != "" {
				return fmt.Errorf("upstream %s: %s", state.Status, state.LastError)
			}
			return fmt.Errorf("upstream %s", state.Status)
		}
		return nil
	})

	forwarder := proxy.NewForwarder(target, proxy.ForwarderConfig{
		DefaultTimeout:      cfg.Gateway.DefaultTimeout,
		LongRunningTimeout:  cfg.Gateway.LongRunningTimeout,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	}, s.logger, collector, tracer)

	deps := server.Deps{
		Target:    target,
		Table:     table,
		Forwarder: forwarder,
		Health:    tracker,
		Auth:      auth.FromConfig(cfg.Auth),
		CORS:      middleware.NewCORSConfig(cfg.CORS),
		Metrics:   collector,
		Checker:   checker,
		Build:     s.build,
		Logger:    s.logger,
	}
	if cfg.Telemetry.Metrics.Enabled {
		deps.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	if deps.Auth != nil {
		s.logger.Info("access keys required", "keys", len(cfg.Auth.Keys), "header", cfg.Auth.Header)
	}

	if cfg.Journal.Enabled {
		store, err := journal.Open(journal.StoreConfig{
			Path:        cfg.Journal.Path,
			BusyTimeout: cfg.Journal.BusyTimeout,
		}, s.logger)
		if err != nil {
			return &StartupError{Step: StepJournal, Err: err}
		}
		defer store.Close()

		rec := journal.NewRecorder(store, journal.RecorderConfig{
			BufferSize: cfg.Journal.BufferSize,
		}, s.logger, collector)
		defer rec.Close()

		pruner := journal.NewScheduler(store, cfg.Journal.PruneSchedule, cfg.Journal.RetentionDays, s.logger)
		if err := pruner.Start(ctx); err != nil {
			return &StartupError{Step: StepJournal, Err: err}
		}
		defer pruner.Stop()

		checker.RegisterCheck("journal", store.Ping)
		deps.Journal = rec
	}

	handler := server.NewRouter(deps)

	heartbeat := NewHeartbeat(cfg.Supervisor.HeartbeatInterval, selfURL(binding), tracker, nil, collector, s.logger)
	if err := heartbeat.Start(ctx); err != nil {
		return &StartupError{Step: StepHeartbeat, Err: err}
	}
	defer heartbeat.Stop()

	return s.serve(ctx, binding, handler, collector, heartbeat, logger)
}

// serve runs the accept loop, restarting it on the same port after a
// crash until the budget runs out.
func (s *Supervisor) serve(ctx context.Context, binding *listener.Binding, handler http.Handler, collector *metrics.Collector, heartbeat *Heartbeat, logger *slog.Logger) error {
	cfg := s.cfg
	budget := NewRestartBudget(cfg.Supervisor.MaxRestarts, cfg.Supervisor.RestartWindow)

	var servers []*server.Server
	drain := func() error {
		heartbeat.Stop()
		s.drain(servers, logger)
		return nil
	}

	for {
		srv := server.New(handler, cfg.Gateway, s.logger)
		servers = append(servers, srv)

		ln := binding.Listener
		if s.listenerHook != nil {
			ln = s.listenerHook(ln)
		}

		served := make(chan error, 1)
		go func() {
			served <- srv.Serve(ln)
		}()
		s.markReady(binding.Addr())

		var crash error
		select {
		case <-ctx.Done():
			logger.Info("shutdown requested, draining in-flight requests",
				"timeout", cfg.Supervisor.ShutdownTimeout.String(),
			)
			return drain()
		case crash = <-served:
		}

		if crash == nil {
			return drain()
		}

		logger.Error("listener crashed", "address", binding.Addr(), "error", crash)

		for {
			if !budget.Allow(s.now()) {
				logger.Error("restart budget exhausted",
					"max_restarts", cfg.Supervisor.MaxRestarts,
					"window", cfg.Supervisor.RestartWindow.String(),
				)
				_ = drain()
				return fmt.Errorf("%w: %d restarts within %s, last crash: %v",
					ErrRestartBudgetExceeded, cfg.Supervisor.MaxRestarts, cfg.Supervisor.RestartWindow, crash)
			}
			collector.RecordRestart()

			select {
			case <-ctx.Done():
				return drain()
			case <-time.After(cfg.Supervisor.RestartDelay):
			}

			if err := binding.Rebind(ctx); err != nil {
				if ctx.Err() != nil {
					return drain()
				}
				logger.Error("listener restart failed", "address", binding.Addr(), "error", err)
				crash = err
				continue
			}

			logger.Warn("listener restarted",
				"address", binding.Addr(),
				"restarts_in_window", budget.Used(s.now()),
			)
			break
		}
	}
}

// drain shuts every server down, letting in-flight requests finish within
// the shutdown timeout.
func (s *Supervisor) drain(servers []*server.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Supervisor.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		logger.Warn("drain did not finish cleanly", "error", errors.Join(errs...))
		return
	}
	logger.Info("gateway stopped")
}

func (s *Supervisor) markReady(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addr = addr
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

// selfURL is the gateway root as reachable from this process.
func selfURL(b *listener.Binding) string {
	host := b.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(b.Port)) + "/"
}
