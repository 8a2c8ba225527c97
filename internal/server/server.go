// Package server exposes the contract API over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/export"
	"github.com/joseph-ayodele/contracts-parser/internal/telemetry"
)

// Limiter admits or rejects one request for a client key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, float64, error)
}

type Server struct {
	contracts      *contracts.Service
	export         *export.Service
	limiter        Limiter // nil disables upload rate limiting
	maxUploadBytes int64
	logger         *slog.Logger
}

type Option func(*Server)

func WithLimiter(l Limiter) Option { return func(s *Server) { s.limiter = l } }
func WithMaxUploadBytes(n int64) Option { return func(s *Server) { s.maxUploadBytes = n } }
func WithLogger(logger *slog.Logger) Option { return func(s *Server) { s.logger = logger } }

func New(svc *contracts.Service, exp *export.Service, opts ...Option) *Server {
	s := &Server{
		contracts:      svc,
		export:         exp,
		maxUploadBytes: 50 << 20,
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Route("/contracts", func(r chi.Router) {
		r.With(s.rateLimit).Post("/upload", s.handleUpload)
		r.Get("/", s.handleList)
		r.Get("/export.xlsx", s.handleExport)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/status", s.handleStatus)
		r.Get("/{id}/download", s.handleDownload)
	})
	return r
}
