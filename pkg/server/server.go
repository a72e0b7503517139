package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/enforce"
	"meridian-hq/meridian/pkg/telemetry/health"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

// Server is the HTTP enforcement server.
type Server struct {
	config     *config.ServerConfig
	enforcer   *enforce.Enforcer
	metrics    *metrics.Metrics
	watcher    *bundle.Watcher
	health     *health.Checker
	httpServer *http.Server
	logger     *slog.Logger

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.Mutex
	running      bool
}

// NewServer creates an enforcement server. The watcher is optional;
// when set, validated bundle reloads are swapped into the enforcer.
func NewServer(cfg *config.ServerConfig, enforcer *enforce.Enforcer, m *metrics.Metrics, watcher *bundle.Watcher) *Server {
	return &Server{
		config:       cfg,
		enforcer:     enforcer,
		metrics:      m,
		watcher:      watcher,
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
}

// SetHealthChecker installs the readiness checker served at /readyz.
// Must be called before Start.
func (s *Server) SetHealthChecker(c *health.Checker) {
	s.health = c
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if s.watcher != nil {
		go func() {
			if err := s.watcher.Watch(watchCtx, s.enforcer.SetIndex); err != nil {
				s.logger.Error("bundle watcher exited", "error", err)
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting enforcement server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.running = false
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				s.logger.Error("error stopping bundle watcher", "error", err)
			}
		}
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}
	})

	return shutdownErr
}

// Stop requests shutdown from another goroutine.
func (s *Server) Stop() {
	close(s.shutdownChan)
}
