package component

import "fmt"

// ── Multiplicity ──────────────────────────────────────────────────────────────

// Multiplicity says how many candidates an injection point accepts and how
// they are delivered.
type Multiplicity int

const (
	// Single requires exactly one candidate.
	Single Multiplicity = iota
	// OptionalSingle accepts zero or one candidate; zero delivers nil.
	OptionalSingle
	// Collection delivers every candidate as []any, sorted by order then name.
	Collection
	// NameMap delivers every candidate as map[string]any keyed by primary name.
	NameMap
)

func (m Multiplicity) String() string {
	switch m {
	case Single:
		return "single"
	case OptionalSingle:
		return "optional"
	case Collection:
		return "collection"
	case NameMap:
		return "map"
	default:
		return fmt.Sprintf("multiplicity(%d)", int(m))
	}
}

// IsMany reports whether the multiplicity takes all candidates.
func (m Multiplicity) IsMany() bool { return m == Collection || m == NameMap }

// ── Binding ───────────────────────────────────────────────────────────────────

// BindingKind says where a resolved value goes.
type BindingKind int

const (
	// Argument passes the value to the factory at Binding.Position.
	Argument BindingKind = iota
	// Setter hands the value to Binding.Setter after the factory returned.
	Setter
)

// SetterFunc receives the freshly built instance and the resolved value.
type SetterFunc func(instance, value any) error

// Binding describes how a resolved value is delivered.
type Binding struct {
	Kind     BindingKind
	Position int
	Setter   SetterFunc
}

// ── Setting ───────────────────────────────────────────────────────────────────

// SettingRef asks for a configuration value instead of a component. It never
// creates a graph edge.
type SettingRef struct {
	Key     string
	Default any
}

// ValueResolver looks up configuration values by key.
type ValueResolver interface {
	Resolve(key string) (any, bool)
}

// ── InjectionPoint ────────────────────────────────────────────────────────────

// InjectionPoint is one dependency requirement of a descriptor.
type InjectionPoint struct {
	Type         Type
	Qualifier    string
	Multiplicity Multiplicity
	Binding      Binding
	Setting      *SettingRef
}

// One requires exactly one component providing t.
func One(t Type) InjectionPoint { return InjectionPoint{Type: t, Multiplicity: Single} }

// Maybe accepts zero or one component providing t.
func Maybe(t Type) InjectionPoint { return InjectionPoint{Type: t, Multiplicity: OptionalSingle} }

// All collects every component providing t.
func All(t Type) InjectionPoint { return InjectionPoint{Type: t, Multiplicity: Collection} }

// MapOf collects every component providing t keyed by primary name.
func MapOf(t Type) InjectionPoint { return InjectionPoint{Type: t, Multiplicity: NameMap} }

// Setting injects the configuration value for key, or def when the
// resolver has nothing for it.
func Setting(key string, def any) InjectionPoint {
	return InjectionPoint{Setting: &SettingRef{Key: key, Default: def}}
}

// Qualified returns a copy of p restricted to candidates carrying q.
func (p InjectionPoint) Qualified(q string) InjectionPoint {
	p.Qualifier = q
	return p
}

// IsSetting reports whether p reads configuration rather than a component.
func (p InjectionPoint) IsSetting() bool { return p.Setting != nil }

func (p InjectionPoint) String() string {
	if p.Setting != nil {
		return fmt.Sprintf("setting(%s)", p.Setting.Key)
	}
	if p.Qualifier != "" {
		return fmt.Sprintf("%s %s@%s", p.Multiplicity, p.Type, p.Qualifier)
	}
	return fmt.Sprintf("%s %s", p.Multiplicity, p.Type)
}
