package providers

import (
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/metrics"
	"github.com/km-arc/go-ioc/routing"
)

// Capability types of the framework components.
var (
	ConfigType    = component.TypeOf[*config.Config]()
	LoggerType    = component.TypeOf[*zap.Logger]()
	ObserverType  = component.TypeOf[*metrics.Observer]()
	RouterType    = component.TypeOf[*routing.Router]()
	RegistrarType = component.TypeOf[routing.Registrar]()
	ServerType    = component.TypeOf[*Server]()
	InspectorType = component.TypeOf[*Inspector]()
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider contributes the loaded configuration.
//
// Components:
//   - "config" → *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(r *container.Registry) {
	r.Add(component.Instance("config", p.Config))
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider contributes the application logger. The logger is
// flushed when the container closes; it is constructed first, so it is
// flushed last.
//
// Components:
//   - "logger" → *zap.Logger
type LogServiceProvider struct {
	Logger *zap.Logger
}

func (p *LogServiceProvider) Register(r *container.Registry) {
	r.Add(component.Instance("logger", p.Logger).
		PreDestroy(component.HookOf(logging.Sync)))
}

// Boot reports the size of the booted application.
func (p *LogServiceProvider) Boot(c *container.Container) error {
	p.Logger.Info("application booted",
		zap.Int("components", c.Len()),
		zap.String("container", c.ID()),
	)
	return nil
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider contributes the Prometheus observer and, when
// metrics are enabled, a route serving it.
//
// Components:
//   - "metrics"       → *metrics.Observer
//   - "metricsRoutes" → routing.Registrar (metrics.path, default /metrics)
type MetricsServiceProvider struct {
	container.BaseProvider
	Observer *metrics.Observer
	Enabled  bool
}

func (p *MetricsServiceProvider) Register(r *container.Registry) {
	r.Add(component.Instance("metrics", p.Observer))
	if !p.Enabled {
		return
	}
	r.Add(component.Define("metricsRoutes", func(a component.Args) (routing.Registrar, error) {
		obs := component.Arg[*metrics.Observer](a, 0)
		path := component.Arg[string](a, 1)
		return routing.RegistrarFunc(func(rt *routing.Router) {
			rt.Handle(path, obs.Handler())
		}), nil
	}).
		Inject(component.One(ObserverType)).
		Inject(component.Setting("metrics.path", "/metrics")).
		WithOrder(100))
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider contributes the HTTP router. Every component
// providing routing.Registrar is collected, in (order, name) order, and
// asked for its routes.
//
// Components:
//   - "router" → *routing.Router
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(r *container.Registry) {
	r.Add(component.Define("router", func(a component.Args) (*routing.Router, error) {
		logger := component.Arg[*zap.Logger](a, 0)
		rt := routing.New(routing.RequestLogger(logger))
		rt.Register(component.Slice[routing.Registrar](a, 1)...)
		return rt, nil
	}).
		Inject(component.One(LoggerType)).
		Inject(component.All(RegistrarType)))
}

// ── HTTPServiceProvider ───────────────────────────────────────────────────────

// HTTPServiceProvider contributes the HTTP server. It starts listening on
// the Refreshed event and shuts down in its pre-destroy hook.
//
// Components:
//   - "httpServer" → *providers.Server (http.addr, http.shutdown-timeout)
type HTTPServiceProvider struct {
	container.BaseProvider
}

func (p *HTTPServiceProvider) Register(r *container.Registry) {
	r.Add(component.Define("httpServer", func(a component.Args) (*Server, error) {
		router := component.Arg[*routing.Router](a, 0)
		logger := component.Arg[*zap.Logger](a, 1)
		addr := component.Arg[string](a, 2)
		timeout := component.Arg[time.Duration](a, 3)
		return NewServer(addr, router, timeout, logger), nil
	}).
		Inject(component.One(RouterType)).
		Inject(component.One(LoggerType)).
		Inject(component.Setting("http.addr", ":8000")).
		Inject(component.Setting("http.shutdown-timeout", 5*time.Second)).
		Listen(container.RefreshedType, component.On(func(s *Server, _ container.Refreshed) error {
			return s.Start()
		})).
		PreDestroy(component.HookOf((*Server).Stop)))
}

// ── DebugServiceProvider ──────────────────────────────────────────────────────

// DebugServiceProvider contributes the /debug endpoints describing the
// running container.
//
// Components:
//   - "inspector" → *providers.Inspector, also a routing.Registrar
type DebugServiceProvider struct {
	container.BaseProvider
}

func (p *DebugServiceProvider) Register(r *container.Registry) {
	r.Add(component.Define("inspector", func(component.Args) (*Inspector, error) {
		return &Inspector{}, nil
	}).
		Provides(RegistrarType).
		Listen(container.RefreshedType, component.On(func(i *Inspector, ev container.Refreshed) error {
			i.Attach(ev.Container)
			return nil
		})))
}
