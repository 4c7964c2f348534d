package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/CodeArche/proofgate/internal/circuitbreaker"
	"github.com/CodeArche/proofgate/internal/config"
	apierrors "github.com/CodeArche/proofgate/internal/errors"
	"github.com/CodeArche/proofgate/internal/guardian"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/metrics"
	"github.com/CodeArche/proofgate/internal/ratelimit"
)

var (
	serverStartTime = time.Now()
)

// Server owns the listening http.Server.
type Server struct {
	httpServer *http.Server
}

type handlers struct {
	cfg      *config.Config
	guardian *guardian.Service
	breakers *circuitbreaker.Manager
}

// Dependencies groups what the routes need.
type Dependencies struct {
	Guardian *guardian.Service
	Breakers *circuitbreaker.Manager
	Metrics  *metrics.Metrics
	// Gatherer backs the /metrics endpoint; defaults to the global registry.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// New builds the HTTP server around a handler, usually an App router.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      handler,
		},
	}
}

// ConfigureRouter attaches the payment proof routes to an existing router.
func ConfigureRouter(router chi.Router, cfg *config.Config, deps Dependencies) {
	if router == nil {
		return
	}

	handler := handlers{
		cfg:      cfg,
		guardian: deps.Guardian,
		breakers: deps.Breakers,
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	// Security headers middleware (applied first for all responses)
	router.Use(securityHeadersMiddleware)

	// Structured logging before RequestID so the logger owns the request id
	router.Use(logger.Middleware(deps.Logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	rateLimitCfg := ratelimit.FromConfig(cfg.RateLimit, deps.Metrics)
	router.Use(ratelimit.GlobalLimiter(rateLimitCfg))
	router.Use(ratelimit.IPLimiter(rateLimitCfg))

	router.MethodNotAllowed(methodNotAllowed)
	router.NotFound(notFound)

	prefix := cfg.Server.RoutePrefix

	// Lightweight endpoints with 5s timeout (health checks, metrics)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/health", handler.health)
		r.With(adminMetricsAuth(cfg.Server.AdminMetricsAPIKey)).
			Handle(prefix+"/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	})

	// Payment proof endpoints wait on the gateway and the mail provider
	requestTimeout := cfg.Server.RequestTimeout.Duration
	if requestTimeout <= 0 {
		requestTimeout = 25 * time.Second
	}
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Post(prefix+"/approve", handler.approve)
		r.Post(prefix+"/complete", handler.complete)
		r.Post(prefix+"/contact", handler.contact)
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeMethodNotAllowed, "method not allowed", "method", r.Method)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteSimpleError(w, apierrors.ErrCodeNotFound, "not found")
}

// Handler exposes the configured router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
