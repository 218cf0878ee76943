package container

import (
	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/plan"
)

// ── Provider interface ────────────────────────────────────────────────────────

// Provider contributes component descriptors to a Registry.
//
// Register only declares descriptors; nothing is constructed yet. A provider
// that must act on the live container implements Booter as well: Boot runs
// after every component of the plan is up.
//
//	type RepoProvider struct{ container.BaseProvider }
//
//	func (p *RepoProvider) Register(r *container.Registry) {
//	    r.Add(component.Define("mysqlRepo", newMySQLRepo).
//	        Provides(component.TypeOf[Repository]()).
//	        Named("mysql"))
//	}
type Provider interface {
	Register(r *Registry)
}

// Booter is implemented by providers that need the live container.
type Booter interface {
	Boot(c *Container) error
}

// BaseProvider is an embeddable no-op Booter.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry collects descriptor sets from providers and merges them into the
// input of plan.Build. Duplicates (same Descriptor.Key) keep the first one.
type Registry struct {
	providers  []Provider
	registered map[Provider]bool

	descs []component.Descriptor
	keys  map[string]bool

	rules []contextualRule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		registered: make(map[Provider]bool),
		keys:       make(map[string]bool),
	}
}

// Register calls provider.Register once; registering the same provider
// value again is a no-op.
func (r *Registry) Register(provider Provider) {
	if r.registered[provider] {
		return
	}
	r.registered[provider] = true
	r.providers = append(r.providers, provider)
	provider.Register(r)
}

// Add appends descriptors, dropping any whose key is already present.
func (r *Registry) Add(descs ...component.Descriptor) {
	for _, d := range descs {
		k := d.Key()
		if r.keys[k] {
			continue
		}
		r.keys[k] = true
		r.descs = append(r.descs, d)
	}
}

// Merge adds several descriptor sets in order.
func (r *Registry) Merge(sets ...[]component.Descriptor) {
	for _, s := range sets {
		r.Add(s...)
	}
}

// Descriptors returns the merged set with contextual rules applied.
func (r *Registry) Descriptors() []component.Descriptor {
	out := make([]component.Descriptor, len(r.descs))
	for i, d := range r.descs {
		for _, rule := range r.rules {
			if d.HasName(rule.concrete) {
				d = d.Requalify(rule.needs, rule.give)
			}
		}
		out[i] = d
	}
	return out
}

// Build plans the merged descriptor set.
func (r *Registry) Build() (*plan.Plan, error) {
	return plan.Build(r.Descriptors())
}

// Boot calls Boot on every registered provider that implements Booter, in
// registration order, stopping at the first error.
func (r *Registry) Boot(c *Container) error {
	for _, p := range r.providers {
		if b, ok := p.(Booter); ok {
			if err := b.Boot(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Providers returns the registered providers.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Len returns the number of merged descriptors.
func (r *Registry) Len() int { return len(r.descs) }
