// Package api provides the HTTP API server for the domain registry.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/narvanalabs/domain-registry/internal/api/handlers"
	"github.com/narvanalabs/domain-registry/internal/api/health"
	"github.com/narvanalabs/domain-registry/internal/api/middleware"
	"github.com/narvanalabs/domain-registry/internal/auth"
	"github.com/narvanalabs/domain-registry/internal/domains"
	"github.com/narvanalabs/domain-registry/internal/events"
	"github.com/narvanalabs/domain-registry/pkg/config"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// requestTimeout bounds every non-streaming request.
const requestTimeout = 60 * time.Second

// Server represents the HTTP API server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	auth          *auth.Service
	domains       *domains.Service
	broker        *events.Broker
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
}

// NewServer creates a new API server with the given dependencies. db is
// pinged by the health check; broker feeds the watch endpoint and may be nil.
func NewServer(cfg *config.Config, db health.Pinger, authSvc *auth.Service, domainSvc *domains.Service, broker *events.Broker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		auth:          authSvc,
		domains:       domainSvc,
		broker:        broker,
		config:        cfg,
		logger:        logger,
		healthChecker: health.NewChecker(db, Version),
	}
	s.setupRouter()
	return s
}

// HealthChecker exposes the checker so optional components can be registered.
func (s *Server) HealthChecker() *health.Checker {
	return s.healthChecker
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	r.Get("/health", s.healthChecker.Handler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	domainHandler := handlers.NewDomainHandler(s.domains, s.logger)
	authMiddleware := middleware.NewAuthMiddleware(s.auth, s.config.APIKeyHeader, s.logger)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(requestTimeout))

			r.Route("/apps/{appID}/domains", func(r chi.Router) {
				r.Post("/", domainHandler.Create)
				r.Get("/", domainHandler.List)
				r.Delete("/{hostname}", domainHandler.Delete)
			})
			r.Get("/domains", domainHandler.ListAll)
		})

		// Long-lived stream, outside the request timeout.
		if s.broker != nil {
			watchHandler := handlers.NewWatchHandler(s.broker, s.logger)
			r.With(middleware.RequireAdmin).Get("/domains/watch", watchHandler.Watch)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{
			"service": "domain-registry",
			"version": Version,
		})
	})

	s.router = r
}

// Start starts the HTTP server and blocks until ctx is done or the server fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down API server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
