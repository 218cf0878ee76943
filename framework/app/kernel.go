package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/metrics"
	"github.com/km-arc/go-ioc/framework/providers"
)

// Application drives the whole lifecycle: providers describe components,
// the registry plans them, the container builds them, Run serves until the
// context ends and the container is always closed on the way out.
type Application struct {
	Config    *config.Config
	Logger    *zap.Logger
	Providers *container.Registry
	Metrics   *metrics.Observer
}

// Option customises New.
type Option func(*Application)

// WithLogger replaces the logger built from config.
func WithLogger(l *zap.Logger) Option {
	return func(a *Application) { a.Logger = l }
}

// WithConfig replaces the configuration loaded from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(a *Application) { a.Config = cfg }
}

// New loads configuration, builds the logger and the metrics registry and
// registers the framework providers.
func New(opts ...Option) (*Application, error) {
	a := &Application{}
	for _, opt := range opts {
		opt(a)
	}
	if a.Config == nil {
		a.Config = config.Load()
	}
	if a.Logger == nil {
		l, err := logging.New(a.Config)
		if err != nil {
			return nil, err
		}
		a.Logger = l
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewObserver(reg)

	a.Providers = container.NewRegistry()
	a.Register(
		&providers.ConfigServiceProvider{Config: a.Config},
		&providers.LogServiceProvider{Logger: a.Logger},
		&providers.MetricsServiceProvider{Observer: a.Metrics, Enabled: a.Config.Metrics.Enabled},
		&providers.RoutingServiceProvider{},
		&providers.HTTPServiceProvider{},
	)
	if a.Config.App.Debug {
		a.Register(&providers.DebugServiceProvider{})
	}
	return a, nil
}

// Register adds service providers.
func (a *Application) Register(ps ...container.Provider) {
	for _, p := range ps {
		a.Providers.Register(p)
	}
}

// Add contributes descriptors directly, without a provider.
func (a *Application) Add(descs ...component.Descriptor) {
	a.Providers.Add(descs...)
}

// Start plans and instantiates the registered components and boots the
// providers. The caller owns the returned container and must close it.
func (a *Application) Start(ctx context.Context) (*container.Container, error) {
	resolver, err := a.Config.Resolver()
	if err != nil {
		return nil, err
	}
	p, err := a.Providers.Build()
	if err != nil {
		return nil, fmt.Errorf("app: plan: %w", err)
	}
	a.Logger.Debug("plan built", zap.Strings("order", p.Names()))

	c, err := container.Instantiate(p,
		container.WithContext(ctx),
		container.WithValueResolver(resolver),
		container.WithLogger(a.Logger),
		container.WithObserver(a.Metrics),
	)
	if err != nil {
		return nil, err
	}
	if err := a.Providers.Boot(c); err != nil {
		return nil, multierr.Append(fmt.Errorf("app: boot: %w", err), c.Close())
	}
	return c, nil
}

// Run starts the application and blocks until ctx is done or the HTTP
// server fails. The container is closed before Run returns and teardown
// errors are part of the result.
func (a *Application) Run(ctx context.Context) (err error) {
	c, err := a.Start(ctx)
	if err != nil {
		return err
	}
	defer c.CloseWith(&err)

	servers, err := c.GetAll(providers.ServerType)
	if err != nil {
		return err
	}
	var serveErr <-chan error
	if len(servers) > 0 {
		serveErr = servers[0].(*providers.Server).Errors()
	}

	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down", zap.String("reason", context.Cause(ctx).Error()))
		return nil
	case err, ok := <-serveErr:
		if !ok {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

// Environment returns APP_ENV.
func (a *Application) Environment() string { return a.Config.App.Env }

func (a *Application) IsLocal() bool      { return a.Environment() == "local" }
func (a *Application) IsProduction() bool { return a.Config.IsProduction() }
func (a *Application) IsTesting() bool    { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool      { return a.Config.App.Debug }
