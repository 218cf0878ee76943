package container

import "github.com/km-arc/go-ioc/framework/component"

type contextualRule struct {
	concrete string
	needs    component.Type
	give     string
}

// ContextualBuilder implements the fluent contextual binding API.
//
//	// when the report service needs a Repository, give it the mysql one
//	r.When("reportService").Needs(component.TypeOf[Repository]()).Give("mysql")
type ContextualBuilder struct {
	registry *Registry
	concrete string
	needs    component.Type
}

// When starts a contextual rule for the descriptor carrying name.
func (r *Registry) When(name string) *ContextualBuilder {
	return &ContextualBuilder{registry: r, concrete: name}
}

// Needs names the capability type the component depends on.
func (b *ContextualBuilder) Needs(t component.Type) *ContextualBuilder {
	b.needs = t
	return b
}

// Give sets the qualifier used for the unqualified points of that type.
// Points that already carry a qualifier are left alone.
func (b *ContextualBuilder) Give(qualifier string) {
	b.registry.rules = append(b.registry.rules, contextualRule{
		concrete: b.concrete,
		needs:    b.needs,
		give:     qualifier,
	})
}
