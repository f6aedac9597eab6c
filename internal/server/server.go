// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

// Package server exposes the knowledge-graph exploration endpoints over
// HTTP with a chi router and a huma-managed OpenAPI description.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/douglasArantes/wikibrowser-service/internal/metrics"
	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
	"github.com/douglasArantes/wikibrowser-service/pkg/health"
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	DefaultLang  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    RateLimitConfig
}

// Server wraps a chi router with huma API and HTTP server.
type Server struct {
	router      chi.Router
	api         huma.API
	cfg         Config
	explorer    ClaimsService
	metrics     *metrics.Metrics
	tracker     *health.Tracker
	limiter     *rateLimiter
	rateLimDone chan struct{}
}

// New creates a Server with chi router, huma API, health endpoint, and CORS.
// The claims routes return 503 until a ClaimsService is registered.
func New(cfg Config, m *metrics.Metrics) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, wberr.New(wberr.CodeServerConfigInvalid, "listen address is required")
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "en"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(corsMiddleware(cfg.CORSOrigins))

	limiter := newRateLimiter(cfg.RateLimit)
	if limiter != nil {
		r.Use(limiter.middleware)
	}

	// Huma API with OpenAPI spec
	humaConfig := huma.DefaultConfig("Wikibrowser", "0.1.0")
	humaConfig.Info.Description = "Wikidata knowledge graph exploration API"
	api := humachi.New(r, humaConfig)
	tracker := health.NewTracker()

	// Health endpoint
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*health.Response, error) {
		return health.FromTracker(tracker), nil
	})

	srv := &Server{
		router:      r,
		api:         api,
		cfg:         cfg,
		metrics:     m,
		tracker:     tracker,
		limiter:     limiter,
		rateLimDone: make(chan struct{}),
	}

	srv.registerClaimsRoutes()

	if m != nil {
		r.Get("/metrics", m.Handler().ServeHTTP)
	}

	return srv, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// RegisterClaimsService sets the service backing the exploration endpoints.
func (s *Server) RegisterClaimsService(svc ClaimsService) {
	s.explorer = svc
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return wberr.Wrapf(err, wberr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	// Visitor cleanup runs only while the server is serving; a server that
	// is constructed but never started spawns no background work.
	if s.limiter != nil {
		go s.limiter.cleanup(s.rateLimDone)
		defer close(s.rateLimDone)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return wberr.Wrap(err, wberr.CodeServerStartFailure, "shutting down")
	}

	return <-errCh
}

// requestIDMiddleware tags each request with a UUID so log lines from the
// same request can be correlated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

// RequestIDFromContext returns the request id set by the middleware, or an
// empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
