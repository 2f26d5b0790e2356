// Package server wires the router, the middleware chain and the HTTP listener, and
// flushes the records on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giygas/cabinet/config"
	"github.com/giygas/cabinet/handlers"
	"github.com/giygas/cabinet/interfaces"
	"github.com/giygas/cabinet/logging"
	"github.com/giygas/cabinet/metrics"
	"github.com/giygas/cabinet/views"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	app         interfaces.Application
	config      *config.Config
	rateLimiter *RateLimiter
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, app interfaces.Application, renderer *views.Renderer, health interfaces.HealthChecker) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              net.JoinHostPort(cfg.Address, cfg.Port),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router:      router,
		app:         app,
		config:      cfg,
		rateLimiter: NewRateLimiter(),
	}

	s.setupMiddleware()
	s.setupRoutes(handlers.NewHTTPHandler(app, renderer, health))
	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(LocalOnlyMiddleware) // before RealIPMiddleware to see the socket address
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h *handlers.HTTPHandler) {
	h.Routes(s.router)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	logging.Info(fmt.Sprintf("Starting server at: http://%s", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for the running ones, then rewrites every
// slot so that nothing pending is lost.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	var shutdownErr error
	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			shutdownErr = err
		}
	}
	s.rateLimiter.Stop()

	if err := s.app.Flush(); err != nil {
		logging.Error("Failed to flush records on shutdown", "error", err)
		return errors.Join(shutdownErr, err)
	}

	logging.Info("Server shutdown complete")
	return shutdownErr
}
