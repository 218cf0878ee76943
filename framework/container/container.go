package container

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/plan"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container owns the live instances of one plan execution.
//
// Instances are created in plan order and destroyed in exact reverse order.
// After Instantiate returns the instance table is never written again until
// Close, so lookups from several goroutines need no locking.
type Container struct {
	id   string
	plan *plan.Plan

	// plan position → instance; len(instances) is the live count
	instances []any

	// name or qualifier → plan positions carrying it
	byName map[string][]int

	bus eventBus

	logger   *zap.Logger
	observer Observer

	closing atomic.Bool
	closed  atomic.Bool
}

// New builds a plan from descs and instantiates it.
//
//	c, err := container.New(descs, container.WithLogger(log))
func New(descs []component.Descriptor, opts ...Option) (*Container, error) {
	p, err := plan.Build(descs)
	if err != nil {
		return nil, err
	}
	return Instantiate(p, opts...)
}

// Instantiate executes p. On any failure the components already built are
// torn down in reverse order before the error is returned, so no partially
// built container ever escapes.
func Instantiate(p *plan.Plan, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{
		id:        uuid.NewString(),
		plan:      p,
		instances: make([]any, 0, p.Len()),
		byName:    make(map[string][]int),
		observer:  o.observer,
	}
	c.logger = o.logger.With(zap.String("container", c.id))

	start := time.Now()
	for i := 0; i < p.Len(); i++ {
		if o.stopper != nil && o.stopper.ShouldStop() {
			return nil, c.abort(&InterruptedError{Constructed: len(c.instances)})
		}
		if err := c.construct(p.Step(i), o.resolver); err != nil {
			return nil, c.abort(err)
		}
	}

	if err := c.bus.publish(Refreshed{Container: c}); err != nil {
		ce := &ConstructionError{Component: componentOf(err), Phase: PhaseRefresh, Err: err}
		c.observer.Failed(ce.Component, PhaseRefresh, err)
		return nil, c.abort(ce)
	}

	c.logger.Info("container refreshed",
		zap.Int("components", len(c.instances)),
		zap.Int("listeners", len(c.bus.subs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return c, nil
}

// construct runs one step: values, factory, setters, record, hooks,
// listeners. The instance becomes live only after the setters succeeded.
func (c *Container) construct(step plan.Step, resolver component.ValueResolver) error {
	d := step.Descriptor
	name := d.Name()
	start := time.Now()

	fail := func(phase Phase, err error) error {
		c.observer.Failed(name, phase, err)
		return &ConstructionError{Component: name, Phase: phase, Err: err}
	}

	type setterValue struct {
		fn    component.SetterFunc
		value any
	}
	var (
		args    component.Args
		setters []setterValue
	)
	for _, r := range step.Deps {
		v, err := c.value(r, resolver)
		if err != nil {
			return fail(PhaseFactory, err)
		}
		switch r.Point.Binding.Kind {
		case component.Setter:
			setters = append(setters, setterValue{fn: r.Point.Binding.Setter, value: v})
		default:
			pos := r.Point.Binding.Position
			for len(args) <= pos {
				args = append(args, nil)
			}
			args[pos] = v
		}
	}

	var instance any
	err := guard(func() error {
		var ferr error
		instance, ferr = d.Factory()(args)
		return ferr
	})
	if err != nil {
		return fail(PhaseFactory, err)
	}

	for _, s := range setters {
		if err := guard(func() error { return s.fn(instance, s.value) }); err != nil {
			return fail(PhaseInject, err)
		}
	}

	c.record(step.Index, d, instance)

	for _, h := range d.PostConstructHooks() {
		if err := guard(func() error { return h(instance) }); err != nil {
			return fail(PhasePostConstruct, err)
		}
	}

	c.bus.subscribe(name, instance, d.Listeners())

	elapsed := time.Since(start)
	c.observer.Constructed(name, elapsed)
	c.logger.Debug("component constructed",
		zap.String("component", name),
		zap.Int("index", step.Index),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// value resolves one injection point against the live instances.
func (c *Container) value(r plan.Resolution, resolver component.ValueResolver) (any, error) {
	p := r.Point
	if p.IsSetting() {
		return p.Setting.Value(resolver)
	}
	switch p.Multiplicity {
	case component.Collection:
		out := make([]any, len(r.Targets))
		for i, t := range r.Targets {
			out[i] = c.instances[t]
		}
		return out, nil
	case component.NameMap:
		out := make(map[string]any, len(r.Targets))
		for _, t := range r.Targets {
			out[c.plan.Step(t).Descriptor.Name()] = c.instances[t]
		}
		return out, nil
	default:
		if len(r.Targets) == 0 {
			return nil, nil
		}
		return c.instances[r.Targets[0]], nil
	}
}

func (c *Container) record(index int, d component.Descriptor, instance any) {
	if index != len(c.instances) {
		panic(fmt.Sprintf("container: step %d recorded out of order (live %d)", index, len(c.instances)))
	}
	c.instances = append(c.instances, instance)
	for _, n := range d.Names() {
		c.byName[n] = append(c.byName[n], index)
	}
}

// abort closes the partially built container the way Close does: Closing
// reaches the listeners registered so far, then the live instances are torn
// down. The teardown errors are attached to err.
func (c *Container) abort(err error) error {
	c.closing.Store(true)
	var cleanup error
	if lerr := c.bus.publish(Closing{Container: c}); lerr != nil {
		cleanup = &TeardownError{Component: componentOf(lerr), Err: lerr}
	}
	cleanup = multierr.Append(cleanup, c.teardown())
	c.closed.Store(true)

	switch e := err.(type) {
	case *ConstructionError:
		e.Cleanup = cleanup
		c.logger.Error("container construction failed",
			zap.String("component", e.Component),
			zap.String("phase", string(e.Phase)),
			zap.Error(e.Err),
		)
	case *InterruptedError:
		e.Cleanup = cleanup
		c.logger.Warn("container construction interrupted", zap.Int("constructed", e.Constructed))
	}
	return err
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Get returns the single instance providing t, narrowed by an optional
// qualifier, with the same selection rules used during planning.
func (c *Container) Get(t component.Type, qualifier ...string) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	var q string
	if len(qualifier) > 0 {
		q = qualifier[0]
	}
	idx, err := c.plan.Lookup(t, q)
	if err != nil {
		return nil, err
	}
	return c.instances[idx], nil
}

// GetAll returns every instance providing t in collection order.
func (c *Container) GetAll(t component.Type, qualifier ...string) ([]any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	var q string
	if len(qualifier) > 0 {
		q = qualifier[0]
	}
	idx := c.plan.LookupAll(t, q)
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = c.instances[j]
	}
	return out, nil
}

// Resolve is the generic version of Get.
//
//	repo, err := container.Resolve[Repository](c, "mysql")
func Resolve[T any](c *Container, qualifier ...string) (T, error) {
	var zero T
	v, err := c.Get(component.TypeOf[T](), qualifier...)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s resolved to %T", component.TypeOf[T](), v)
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error. Use it in wiring code where a
// failure is a programming error.
func MustResolve[T any](c *Container, qualifier ...string) T {
	v, err := Resolve[T](c, qualifier...)
	if err != nil {
		panic(err)
	}
	return v
}

// ByName returns the instances whose name or qualifier is name, in plan
// order.
func (c *Container) ByName(name string) []any {
	if c.closed.Load() {
		return nil
	}
	idx := c.byName[name]
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = c.instances[j]
	}
	return out
}

// Instances returns the live instances in construction order.
func (c *Container) Instances() []any {
	if c.closed.Load() {
		return nil
	}
	out := make([]any, len(c.instances))
	copy(out, c.instances)
	return out
}

// Len returns the number of live instances.
func (c *Container) Len() int {
	if c.closed.Load() {
		return 0
	}
	return len(c.instances)
}

// ID is the random identifier of this container, used in log lines.
func (c *Container) ID() string { return c.id }

// Plan returns the plan the container was built from.
func (c *Container) Plan() *plan.Plan { return c.plan }

// Closed reports whether Close has completed.
func (c *Container) Closed() bool { return c.closed.Load() }
