// Package proofgate embeds the Pi payment proof endpoints in a host application.
package proofgate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/CodeArche/proofgate/internal/circuitbreaker"
	"github.com/CodeArche/proofgate/internal/config"
	"github.com/CodeArche/proofgate/internal/guardian"
	"github.com/CodeArche/proofgate/internal/httpserver"
	"github.com/CodeArche/proofgate/internal/lifecycle"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/mail"
	"github.com/CodeArche/proofgate/internal/metrics"
	"github.com/CodeArche/proofgate/internal/pinetwork"
	"github.com/CodeArche/proofgate/internal/prooftoken"
)

// App wires the payment proof components for reuse or standalone serving.
type App struct {
	Config   *config.Config
	Guardian *guardian.Service
	Breakers *circuitbreaker.Manager
	Metrics  *metrics.Metrics

	router          chi.Router
	resourceManager *lifecycle.Manager
}

// Option configures App construction.
type Option func(*options)

type options struct {
	gateway  guardian.Gateway
	mailer   guardian.Dispatcher
	router   chi.Router
	now      func() time.Time
	logger   *zerolog.Logger
	registry *prometheus.Registry
}

// WithGateway injects a payment gateway in place of the Pi Network client.
func WithGateway(gateway guardian.Gateway) Option {
	return func(o *options) {
		o.gateway = gateway
	}
}

// WithMailer injects a mail dispatcher in place of the Resend client.
func WithMailer(mailer guardian.Dispatcher) Option {
	return func(o *options) {
		o.mailer = mailer
	}
}

// WithRouter allows callers to provide an existing chi.Router to register routes onto.
func WithRouter(router chi.Router) Option {
	return func(o *options) {
		o.router = router
	}
}

// WithClock overrides the time source used to issue and verify proof tokens.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the base logger instead of building one from config.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// WithRegistry registers metrics on reg and serves /metrics from it. Close
// unregisters them again. Without it every App owns a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// NewApp assembles the payment proof services for embedding. Several Apps may
// live in one process; none of them touches the global Prometheus registry.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("proofgate: config required")
	}

	optState := options{}
	for _, opt := range opts {
		opt(&optState)
	}

	app := &App{
		Config:          cfg,
		resourceManager: lifecycle.NewManager(),
	}

	var appLogger zerolog.Logger
	if optState.logger != nil {
		appLogger = *optState.logger
	} else {
		appLogger = logger.New(logger.Config{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			Service:     "proofgate",
			Environment: cfg.Logging.Environment,
		})
	}

	registry := optState.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	app.Metrics = metrics.New(registry)
	_ = app.resourceManager.RegisterFunc("metrics", func() error {
		app.Metrics.Unregister(registry)
		return nil
	})
	app.Breakers = circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)

	gateway := optState.gateway
	if gateway == nil {
		client := pinetwork.NewClient(cfg.Gateway,
			pinetwork.WithCircuitBreaker(app.Breakers),
			pinetwork.WithMetrics(app.Metrics),
		)
		_ = app.resourceManager.Register("pi-gateway-client", client)
		gateway = client
	}

	mailer := optState.mailer
	if mailer == nil {
		client := mail.NewClient(cfg.Mail,
			mail.WithCircuitBreaker(app.Breakers),
			mail.WithMetrics(app.Metrics),
		)
		_ = app.resourceManager.Register("mail-client", client)
		mailer = client
	}

	var tokenOpts []prooftoken.Option
	if optState.now != nil {
		tokenOpts = append(tokenOpts, prooftoken.WithClock(optState.now))
	}

	app.Guardian = guardian.NewService(guardian.Config{
		Gateway:  gateway,
		Issuer:   prooftoken.NewIssuer(cfg.ProofToken.Secret, cfg.ProofToken.Lifetime.Duration, tokenOpts...),
		Verifier: prooftoken.NewVerifier(cfg.ProofToken.Secret, tokenOpts...),
		Mailer:   mailer,
		Brand:    cfg.Mail.Brand,
		Metrics:  app.Metrics,
	})

	if optState.router != nil {
		app.router = optState.router
	} else {
		app.router = chi.NewRouter()
	}

	httpserver.ConfigureRouter(app.router, cfg, httpserver.Dependencies{
		Guardian: app.Guardian,
		Breakers: app.Breakers,
		Metrics:  app.Metrics,
		Gatherer: registry,
		Logger:   appLogger,
	})

	return app, nil
}

// Router returns the chi router with the payment proof routes registered.
func (a *App) Router() chi.Router {
	return a.router
}

// Handler exposes the router as an http.Handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	return a.resourceManager.Close()
}

// NewHandler is a convenience that constructs an App and returns its handler.
func NewHandler(cfg *config.Config, opts ...Option) (http.Handler, func(context.Context) error, error) {
	app, err := NewApp(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	shutdown := func(context.Context) error {
		return app.Close()
	}
	return app.Handler(), shutdown, nil
}

// Config is an exported alias of the internal configuration struct for embedding use.
type Config = config.Config

// LoadConfig wraps the internal loader for consumers embedding proofgate.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
