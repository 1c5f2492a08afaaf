package uikit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/uikit/pkg/definition"
	"github.com/dmitrymomot/uikit/pkg/httpserver"
	"github.com/dmitrymomot/uikit/pkg/logger"
	"github.com/dmitrymomot/uikit/pkg/metrics"
	"github.com/dmitrymomot/uikit/pkg/ratelimiter"
	"github.com/dmitrymomot/uikit/pkg/requestid"
	"github.com/dmitrymomot/uikit/pkg/server"
	"github.com/dmitrymomot/uikit/pkg/valueprovider"
)

// App holds the wired application components.
type App struct {
	cfg      Config
	logger   *slog.Logger
	registry *definition.Registry
	server   *server.Service
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	limiter  *ratelimiter.Limiter

	localeOpts []valueprovider.LocaleOption
}

// Option configures New.
type Option func(*appOptions)

type appOptions struct {
	logger     *slog.Logger
	registry   *prometheus.Registry
	localeOpts []valueprovider.LocaleOption
}

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option {
	return func(o *appOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrometheusRegistry registers collectors with reg instead of a fresh registry.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(o *appOptions) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithLocaleOptions configures the $Locale provider of every request.
func WithLocaleOptions(opts ...valueprovider.LocaleOption) Option {
	return func(o *appOptions) { o.localeOpts = append(o.localeOpts, opts...) }
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(string(cfg.Environment()), cfg.ServiceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
}

// New wires the registry, the action server and the metrics.
func New(cfg Config, opts ...Option) (*App, error) {
	o := appOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewLogger(cfg)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	reg := definition.New(
		definition.WithPolicy(policy),
		definition.WithCacheSize(cfg.cacheSize()),
		definition.WithLogger(o.logger),
	)

	var limiter *ratelimiter.Limiter
	if cfg.ActionRate.Enabled() {
		if limiter, err = ratelimiter.New(cfg.ActionRate); err != nil {
			return nil, err
		}
	}

	m, err := metrics.New(o.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if err := o.registry.Register(metrics.NewCacheCollector(reg.CacheStats)); err != nil {
		return nil, fmt.Errorf("register cache metrics: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   o.logger,
		registry: reg,
		server: server.New(reg,
			server.WithLogger(o.logger.With(logger.Component("server"))),
			server.WithMetrics(m),
			server.WithMaxChainDepth(cfg.MaxChainDepth),
		),
		metrics:    m,
		gatherer:   o.registry,
		limiter:    limiter,
		localeOpts: o.localeOpts,
	}, nil
}

func (a *App) Registry() *definition.Registry { return a.registry }

func (a *App) Server() *server.Service { return a.server }

func (a *App) Logger() *slog.Logger { return a.logger }

// Handler returns the application router.
func (a *App) Handler() http.Handler { return a.Router() }

// Serve runs the HTTP server until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	defer a.Close()
	srv := httpserver.NewFromConfig(a.cfg.HTTP, httpserver.WithLogger(a.logger))
	return srv.Run(ctx, a.Handler())
}

// Close releases background resources of the application.
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
}
