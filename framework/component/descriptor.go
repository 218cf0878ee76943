package component

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unordered is the default order: last among ties.
const Unordered = math.MaxInt32

// ErrInvalidDescriptor is wrapped by every Validate failure.
var ErrInvalidDescriptor = errors.New("component: invalid descriptor")

// ── Functions carried by a descriptor ─────────────────────────────────────────

// Factory builds one instance from the resolved constructor arguments.
type Factory func(args Args) (any, error)

// Hook runs against a live instance (post-construct / pre-destroy).
type Hook func(instance any) error

// Handler receives an event on behalf of the owning instance.
type Handler func(instance, event any) error

// Listener binds an event capability type to a handler.
type Listener struct {
	Event   Type
	Handler Handler
}

// ── Descriptor ────────────────────────────────────────────────────────────────

// Descriptor is the static description of one injectable component. It is a
// value: every builder method returns a modified copy and leaves the
// receiver untouched, so a descriptor handed to plan.Build can never change
// underneath it.
//
//	repo := component.Define("mysqlRepo", newMySQLRepo).
//	    Provides(component.TypeOf[Repository]()).
//	    Named("mysql").
//	    Inject(component.One(component.TypeOf[*sql.DB]())).
//	    PreDestroy(closeRepo)
type Descriptor struct {
	names         []string
	provided      []Type
	factory       Factory
	deps          []InjectionPoint
	postConstruct []Hook
	preDestroy    []Hook
	listeners     []Listener
	order         int
	primary       bool
}

// New creates a descriptor named name that provides t.
func New(name string, t Type, factory Factory) Descriptor {
	return Descriptor{
		names:    []string{name},
		provided: []Type{t},
		factory:  factory,
		order:    Unordered,
	}
}

// Define creates a descriptor for a typed factory; the descriptor provides T.
func Define[T any](name string, factory func(args Args) (T, error)) Descriptor {
	return New(name, TypeOf[T](), func(args Args) (any, error) {
		return factory(args)
	})
}

// Instance registers a pre-built value.
//
//	component.Instance("config", cfg)
func Instance[T any](name string, value T) Descriptor {
	return New(name, TypeOf[T](), func(Args) (any, error) { return value, nil })
}

// ── Builder operations ────────────────────────────────────────────────────────

// Named adds a qualifier.
func (d Descriptor) Named(qualifier string) Descriptor {
	d.names = appendCopy(d.names, qualifier)
	return d
}

// Provides declares additional capability types (supertypes, interfaces,
// parameterised identities).
func (d Descriptor) Provides(types ...Type) Descriptor {
	d.provided = appendCopy(d.provided, types...)
	return d
}

// Inject adds a dependency delivered as the next constructor argument.
func (d Descriptor) Inject(p InjectionPoint) Descriptor {
	p.Binding = Binding{Kind: Argument, Position: d.argumentCount()}
	d.deps = appendCopy(d.deps, p)
	return d
}

// InjectSetter adds a dependency delivered after construction through fn.
func (d Descriptor) InjectSetter(p InjectionPoint, fn SetterFunc) Descriptor {
	p.Binding = Binding{Kind: Setter, Setter: fn}
	d.deps = appendCopy(d.deps, p)
	return d
}

// PostConstruct appends a hook run once the instance is live.
func (d Descriptor) PostConstruct(h Hook) Descriptor {
	d.postConstruct = appendCopy(d.postConstruct, h)
	return d
}

// PreDestroy appends a hook run during teardown, before the disposer.
func (d Descriptor) PreDestroy(h Hook) Descriptor {
	d.preDestroy = appendCopy(d.preDestroy, h)
	return d
}

// Listen subscribes the instance to events accepted by t.
func (d Descriptor) Listen(t Type, h Handler) Descriptor {
	d.listeners = appendCopy(d.listeners, Listener{Event: t, Handler: h})
	return d
}

// WithOrder sets the collection order (ascending).
func (d Descriptor) WithOrder(order int) Descriptor {
	d.order = order
	return d
}

// Requalify narrows every unqualified single or collection point of type t
// to candidates carrying qualifier. It is the contextual-binding shortcut:
// "when this component needs t, give it the one named qualifier".
func (d Descriptor) Requalify(t Type, qualifier string) Descriptor {
	deps := appendCopy(d.deps)
	for i, p := range deps {
		if !p.IsSetting() && p.Qualifier == "" && p.Type.Equal(t) {
			deps[i].Qualifier = qualifier
		}
	}
	d.deps = deps
	return d
}

// Primary marks the descriptor as the preferred candidate among
// unqualified competitors.
func (d Descriptor) Primary() Descriptor {
	d.primary = true
	return d
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Name is the primary identity.
func (d Descriptor) Name() string {
	if len(d.names) == 0 {
		return ""
	}
	return d.names[0]
}

func (d Descriptor) Names() []string { return appendCopy(d.names) }

// Qualifiers returns names[1:].
func (d Descriptor) Qualifiers() []string {
	if len(d.names) < 2 {
		return nil
	}
	return appendCopy(d.names[1:])
}

// HasName reports whether n is the primary name or one of the qualifiers.
func (d Descriptor) HasName(n string) bool {
	for _, name := range d.names {
		if name == n {
			return true
		}
	}
	return false
}

func (d Descriptor) ProvidedTypes() []Type { return cloneTypes(d.provided) }

// ProvidesType reports whether t is among the provided types.
func (d Descriptor) ProvidesType(t Type) bool {
	for _, p := range d.provided {
		if p.Equal(t) {
			return true
		}
	}
	return false
}

func (d Descriptor) Factory() Factory { return d.factory }
func (d Descriptor) Dependencies() []InjectionPoint { return appendCopy(d.deps) }
func (d Descriptor) PostConstructHooks() []Hook { return appendCopy(d.postConstruct) }
func (d Descriptor) PreDestroyHooks() []Hook { return appendCopy(d.preDestroy) }
func (d Descriptor) Listeners() []Listener { return appendCopy(d.listeners) }
func (d Descriptor) Order() int { return d.order }
func (d Descriptor) IsPrimary() bool { return d.primary }

// Key identifies the descriptor for duplicate elimination: every name, in
// order, plus own type. Two descriptors sharing a primary name but carrying
// different qualifiers have different keys.
func (d Descriptor) Key() string {
	names := strings.Join(d.names, ",")
	if len(d.provided) == 0 {
		return names
	}
	return names + "@" + d.provided[0].Key()
}

func (d Descriptor) String() string { return d.Name() }

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if len(d.names) == 0 || d.names[0] == "" {
		return fmt.Errorf("%w: missing primary name", ErrInvalidDescriptor)
	}
	seen := make(map[string]bool, len(d.names))
	for _, n := range d.names {
		if n == "" {
			return fmt.Errorf("%w: %s: empty qualifier", ErrInvalidDescriptor, d.Name())
		}
		if seen[n] {
			return fmt.Errorf("%w: %s: duplicate name %q", ErrInvalidDescriptor, d.Name(), n)
		}
		seen[n] = true
	}
	if len(d.provided) == 0 {
		return fmt.Errorf("%w: %s: provides no type", ErrInvalidDescriptor, d.Name())
	}
	for _, t := range d.provided {
		if t.IsZero() {
			return fmt.Errorf("%w: %s: empty provided type", ErrInvalidDescriptor, d.Name())
		}
	}
	if d.factory == nil {
		return fmt.Errorf("%w: %s: nil factory", ErrInvalidDescriptor, d.Name())
	}
	for i, p := range d.deps {
		if p.IsSetting() {
			if p.Setting.Key == "" {
				return fmt.Errorf("%w: %s: dependency %d: empty setting key", ErrInvalidDescriptor, d.Name(), i)
			}
			continue
		}
		if p.Type.IsZero() {
			return fmt.Errorf("%w: %s: dependency %d: empty type", ErrInvalidDescriptor, d.Name(), i)
		}
		if p.Binding.Kind == Setter && p.Binding.Setter == nil {
			return fmt.Errorf("%w: %s: dependency %d: nil setter", ErrInvalidDescriptor, d.Name(), i)
		}
	}
	return nil
}

func (d Descriptor) argumentCount() int {
	n := 0
	for _, p := range d.deps {
		if p.Binding.Kind == Argument {
			n++
		}
	}
	return n
}

// appendCopy never aliases the backing array of s.
func appendCopy[T any](s []T, items ...T) []T {
	out := make([]T, 0, len(s)+len(items))
	out = append(out, s...)
	return append(out, items...)
}
