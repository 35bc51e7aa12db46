// Package api serves records, the record edit screen and the attribution
// JSON endpoint over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/host"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/metrics"
)

// Config holds the dependencies of the HTTP server
type Config struct {
	Plugin    *oa.Plugin
	Hooks     *host.Hooks
	Records   oa.RecordRepository
	Canonical host.PermalinkCanonical
	JWT       *jwtauth.JWTAuth

	// APIKeyAuth guards /api/v1; the routes are not mounted when nil
	APIKeyAuth func(http.Handler) http.Handler
	// Metrics serves /metrics and counts requests when set
	Metrics *metrics.Metrics
	// Ready reports backend readiness for /healthz/ready
	Ready func(ctx context.Context) error

	// SingularPages makes page views single views
	SingularPages bool
	Logger        *slog.Logger
}

// Server handles HTTP requests for records
type Server struct {
	cfg    Config
	pages  *pageTemplates
	logger *slog.Logger
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Plugin == nil:
		return nil, errors.New("plugin is required")
	case cfg.Hooks == nil:
		return nil, errors.New("hooks are required")
	case cfg.Records == nil:
		return nil, errors.New("record repository is required")
	case cfg.JWT == nil:
		return nil, errors.New("JWT auth is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:    cfg,
		pages:  newPageTemplates(),
		logger: logger,
	}, nil
}

// Routes sets up the HTTP routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if s.cfg.Metrics != nil {
		r.Use(s.cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/healthz/ready", s.handleReady)

	r.Get("/records", s.handleListRecords)
	r.Get("/records/{slug}", s.handleShowRecord)

	r.Route("/admin/records", func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.cfg.JWT))
		r.Use(jwtauth.Authenticator)

		r.Post("/", s.handleCreateRecord)
		r.Get("/{id}/edit", s.handleEditRecord)
		r.Post("/{id}", s.handleSaveRecord)
	})

	if s.cfg.APIKeyAuth != nil {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(s.cfg.APIKeyAuth)
			r.Get("/records/{id}/attribution", s.handleGetAttribution)
		})
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, http.StatusText(http.StatusOK))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil {
		if err := s.cfg.Ready(r.Context()); err != nil {
			s.logger.Warn("Readiness check failed", "error", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.PlainText(w, r, http.StatusText(http.StatusServiceUnavailable))
			return
		}
	}
	render.PlainText(w, r, http.StatusText(http.StatusOK))
}

// writeError maps repository errors to HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, oa.ErrRecordNotFound) {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}
	s.logger.Error(msg, "path", r.URL.Path, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}
