package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/callisto/pkg/config"
)

// Server serves the gateway handler on an already-bound listener. A
// Server is used for a single Serve call; restarting after a crash needs
// a new Server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.Mutex
	isRunning bool
}

// New creates a server for handler using the gateway connection limits.
// No write timeout is set; per-route deadlines bound each request.
func New(handler http.Handler, cfg config.GatewayConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger.With("component", "server"),
	}
}

// Serve accepts connections on ln until Shutdown is called or the accept
// loop fails. It returns nil after a Shutdown and the accept error
// otherwise.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.logger.Info("serving", "address", ln.Addr().String())

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server error: %w", err)
}

// Shutdown stops accepting connections and waits for in-flight requests
// to finish or ctx to expire. Connections still open when ctx expires are
// closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		_ = s.httpServer.Close()
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close closes all connections immediately.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// IsRunning returns true while Serve is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
