package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/engine"
)

// Server is the HTTP API server for the cost-governance engine.
type Server struct {
	config     config.ServerConfig
	engine     *engine.Engine
	registry   *prometheus.Registry
	httpServer *http.Server

	mu           sync.RWMutex
	isRunning    bool
	shutdownOnce sync.Once
}

// NewServer creates an API server over the given engine. The registry is
// served on the configured metrics path.
func NewServer(cfg config.ServerConfig, eng *engine.Engine, registry *prometheus.Registry) *Server {
	return &Server{
		config:   cfg,
		engine:   eng,
		registry: registry,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddress,
		Handler: s.setupRoutes(),
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to the
// configured timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("API server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/admission", s.handleAdmission)
	mux.HandleFunc("/v1/operations", s.handleOperations)
	mux.HandleFunc("/v1/budget/status", s.handleBudgetStatus)
	mux.HandleFunc("/v1/budget/summary", s.handleBudgetSummary)
	mux.HandleFunc("/v1/violations", s.handleViolations)
	mux.HandleFunc("/v1/violations/resolve", s.handleResolveViolation)
	mux.HandleFunc("/v1/history", s.handleHistory)
	mux.HandleFunc("/v1/trends", s.handleTrends)
	mux.HandleFunc("/v1/anomalies", s.handleAnomalies)
	mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(handler)

	return handler
}
