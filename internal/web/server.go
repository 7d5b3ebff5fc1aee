// Package web provides the HTTP API and pages for bulk imports.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/gereecole/internal/config"
	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/web/middleware"
)

// Server is the HTTP server for the import API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server backed by service.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if len(s.cfg.Security.CORSOrigins) > 0 {
		s.router.Use(middleware.CORS(s.cfg.Security.CORSOrigins))
	}
	if s.cfg.Rate.Enabled {
		s.router.Use(middleware.RateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		r.Use(middleware.Tenant)
		r.Get("/imports/{runID}", s.handleRunPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		// Templates
		r.Get("/templates", s.handleListTemplates)
		r.Get("/templates/{kind}", s.handleGetTemplate)
		r.Get("/templates/{kind}/download", s.handleDownloadTemplate)

		r.Get("/import/status", s.handleImportQueueStatus)

		// Import runs
		r.Group(func(r chi.Router) {
			r.Use(middleware.Tenant)

			upload := r.With()
			if s.cfg.Rate.Enabled {
				upload = r.With(middleware.RateLimit(s.cfg.Rate.ImportLimit))
			}
			upload.Post("/import/{kind}", s.handleImport)

			r.Get("/import/{runID}/progress", s.handleImportProgress)
			r.Get("/import/{runID}/result", s.handleImportResult)
			r.Get("/import/{runID}/errors", s.handleImportErrors)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	srv := s.cfg.Server
	s.server = &http.Server{
		Addr:         srv.Addr(),
		Handler:      s.router,
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		IdleTimeout:  srv.IdleTimeout,
	}

	slog.Info("starting server", "addr", srv.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
