// Package server is the runtime HTTP surface of a keel application: health
// endpoints, a greeting and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cameronsjo/keel/internal/health"
	"github.com/cameronsjo/keel/internal/manifest"
)

// Route paths served besides the health endpoints.
const (
	GreetingPath = "/greeting"
	MetricsPath  = "/metrics"
)

// Greeting is the body served on GreetingPath.
const Greeting = "hello"

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Config holds server settings.
type Config struct {
	// Port to listen on. Zero picks a free port.
	Port int

	// Capabilities installed in this application. Health endpoints are
	// mounted only with the health capability.
	Capabilities manifest.Capabilities
}

// Server handles HTTP requests for health checks, greeting and metrics.
type Server struct {
	config   Config
	logger   *zap.Logger
	registry *health.Registry
	metrics  *Metrics
	server   *http.Server
	started  atomic.Bool
}

// New creates a server. A nil logger discards logs.
func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: health.NewRegistry(),
		metrics:  NewMetrics(),
	}

	s.metrics.SetCapabilities(cfg.Capabilities)

	// Readiness waits for the listener.
	s.registry.Register(health.GroupReadiness, "server", func(context.Context) health.CheckResponse {
		if s.started.Load() {
			return health.CheckResponse{Status: health.StatusUp}
		}
		return health.CheckResponse{Status: health.StatusDown, Data: map[string]any{"reason": "not listening"}}
	})

	mux := http.NewServeMux()
	if cfg.Capabilities.Has(manifest.CapabilityHealth) {
		health.Mount(mux, s.registry)
	}
	mux.HandleFunc(GreetingPath, handleGreeting)
	mux.Handle(MetricsPath, s.metrics.Handler())

	s.server = &http.Server{
		Handler:      s.instrument(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Health returns the check registry so callers can add their own checks.
func (s *Server) Health() *health.Registry {
	return s.registry
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run listens on the configured port and serves until ctx is cancelled or
// SIGTERM/SIGINT arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.config.Port, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info(fmt.Sprintf("installed capabilities: %v", s.config.Capabilities.Strings()))
	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		s.started.Store(true)
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.started.Store(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.started.Store(false)
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func handleGreeting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Greeting))
}

// routeOf maps a request path to a bounded metrics label.
func routeOf(path string) string {
	switch path {
	case health.RootPath, health.LivePath, health.ReadyPath, GreetingPath, MetricsPath:
		return path
	default:
		return "other"
	}
}
