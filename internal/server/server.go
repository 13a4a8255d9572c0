package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tusharkanta407/HoneyPot/internal/honeypot"
	"github.com/Tusharkanta407/HoneyPot/internal/otel"
	"github.com/Tusharkanta407/HoneyPot/internal/report"
)

const defaultTimeout = 60 * time.Second

// Server holds all dependencies for the HTTP API.
type Server struct {
	router      *chi.Mux
	engine      *honeypot.Engine
	reportStore *report.Store
	apiKeys     map[string]string
	corsOrigins []string
	startTime   time.Time
	version     string
}

// Option configures the Server.
type Option func(*Server)

// WithReportStore sets the report archive backing GET /v1/reports (optional).
func WithReportStore(rs *report.Store) Option {
	return func(s *Server) { s.reportStore = rs }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"]).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithVersion sets the version string reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer builds a Server. apiKeys maps key -> caller name; an empty
// map leaves the API open, which is the expected mode behind the
// evaluation platform.
func NewServer(engine *honeypot.Engine, apiKeys map[string]string, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		engine:      engine,
		apiKeys:     apiKeys,
		corsOrigins: []string{"*"},
		startTime:   time.Now(),
		version:     "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.apiKeys == nil {
		s.apiKeys = make(map[string]string)
	}
	return s
}

// Routes returns the configured http.Handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())
	r.Use(CORSMiddleware(s.corsOrigins))

	// Unauthenticated
	r.Get("/health", s.handleHealth)
	r.Get("/v1/health", s.handleHealth)

	// Authenticated API group
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKeys))
		r.Use(middleware.Timeout(defaultTimeout))

		r.Post("/honeypot", s.handleMessage)

		r.Get("/v1/sessions", s.handleSessionList)
		r.Get("/v1/sessions/{id}", s.handleSessionGet)
		r.Get("/v1/reports", s.handleReportList)
		r.Get("/v1/reports/{id}", s.handleReportGet)
	})

	return r
}
