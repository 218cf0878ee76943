package container

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/component"
)

// ── Stopper ───────────────────────────────────────────────────────────────────

// Stopper is polled between two component constructions. Returning true
// aborts the build and tears down what was already constructed.
type Stopper interface {
	ShouldStop() bool
}

// StopFunc adapts a function to Stopper.
type StopFunc func() bool

func (f StopFunc) ShouldStop() bool { return f() }

// StopOnDone stops once ctx is done.
func StopOnDone(ctx context.Context) Stopper {
	return StopFunc(func() bool { return ctx.Err() != nil })
}

// ── Observer ──────────────────────────────────────────────────────────────────

// Observer is notified about component lifecycle transitions. Calls happen on
// the constructing / closing goroutine.
type Observer interface {
	Constructed(name string, elapsed time.Duration)
	Failed(name string, phase Phase, err error)
	Destroyed(name string, elapsed time.Duration, err error)
}

// BaseObserver is an embeddable no-op Observer.
type BaseObserver struct{}

func (BaseObserver) Constructed(string, time.Duration)      {}
func (BaseObserver) Failed(string, Phase, error)            {}
func (BaseObserver) Destroyed(string, time.Duration, error) {}

// ── Options ───────────────────────────────────────────────────────────────────

type options struct {
	stopper  Stopper
	resolver component.ValueResolver
	logger   *zap.Logger
	observer Observer
}

// Option configures Instantiate.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:   zap.NewNop(),
		observer: BaseObserver{},
	}
}

// WithStopper installs a cooperative cancellation handle.
func WithStopper(s Stopper) Option {
	return func(o *options) { o.stopper = s }
}

// WithContext stops construction once ctx is done.
func WithContext(ctx context.Context) Option {
	return WithStopper(StopOnDone(ctx))
}

// WithValueResolver supplies configuration values for Setting points.
func WithValueResolver(r component.ValueResolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver receives lifecycle notifications (metrics, tracing).
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
