// Package devserver is a stub analytics backend serving canned response
// streams. It exists for offline development and integration tests; the real
// backend owns all query understanding.
package devserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datalens-ai/analytics-console/pkg/logger"
)

// Options configures the stub server.
type Options struct {
	// JWTSecret enables bearer-token validation when set, mirroring the real
	// backend's auth check.
	JWTSecret string

	// FrameDelay is the pause between emitted stream frames. Zero in tests.
	FrameDelay time.Duration

	// RateLimit caps requests per client per minute; zero disables limiting.
	RateLimit int
}

// Server is the stub analytics backend.
type Server struct {
	opts   Options
	logger *logger.Logger
}

// New creates a stub server.
func New(opts Options, log *logger.Logger) *Server {
	return &Server{opts: opts, logger: log}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/analytics", func(r chi.Router) {
		if s.opts.JWTSecret != "" {
			r.Use(s.auth)
		}
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Post("/chat", s.handleChat)
		r.Post("/drill-options", s.handleDrillOptions)
		r.Post("/drill-down", s.handleDrillDown)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
