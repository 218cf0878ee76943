package component

import (
	"reflect"
	"strings"
)

// ── Type ──────────────────────────────────────────────────────────────────────

// Type is a capability identity: a name plus an ordered list of type
// arguments. Two Types are the same capability when their Keys are equal,
// so Generic(box, baz) and Generic(box, qux) never satisfy each other.
//
//	repo := component.TypeOf[UserRepository]()            // from a Go type
//	list := component.Generic(component.Named("List"), repo) // List[UserRepository]
type Type struct {
	name  string
	args  []Type
	rtype reflect.Type // nil for identities built with Named/Generic
}

// Supertyped is implemented by values that want to be dispatched as
// additional capability types (for example an event published under a
// family type).
type Supertyped interface {
	Supertypes() []Type
}

// TypeOf returns the identity of the Go type T. Interfaces are allowed and
// keep their reflect.Type so Accepts can test for implementation.
func TypeOf[T any]() Type {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	return Type{name: typeName(rt), rtype: rt}
}

// TypeOfValue returns the runtime identity of v.
func TypeOfValue(v any) Type {
	if v == nil {
		return Type{}
	}
	rt := reflect.TypeOf(v)
	return Type{name: typeName(rt), rtype: rt}
}

// Named builds an identity that is not bound to a Go type.
func Named(name string, args ...Type) Type {
	return Type{name: name, args: cloneTypes(args)}
}

// Generic parameterises base with type arguments, preserving any arguments
// base already carries.
func Generic(base Type, args ...Type) Type {
	all := make([]Type, 0, len(base.args)+len(args))
	all = append(all, base.args...)
	all = append(all, args...)
	return Type{name: base.name, args: all}
}

// Name returns the type name without arguments.
func (t Type) Name() string { return t.name }

// Args returns a copy of the type arguments.
func (t Type) Args() []Type { return cloneTypes(t.args) }

// IsZero reports whether t is the empty identity.
func (t Type) IsZero() bool { return t.name == "" && len(t.args) == 0 }

// Key returns the canonical string used for indexing and equality.
func (t Type) Key() string {
	if len(t.args) == 0 {
		return t.name
	}
	var b strings.Builder
	b.WriteString(t.name)
	b.WriteByte('[')
	for i, a := range t.args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Key())
	}
	b.WriteByte(']')
	return b.String()
}

// Equal compares two identities structurally.
func (t Type) Equal(other Type) bool { return t.Key() == other.Key() }

func (t Type) String() string { return t.Key() }

// Accepts reports whether v can be delivered to something declared as t:
// v's runtime type is t, v implements the interface t was built from, or v
// lists t among its Supertypes.
func (t Type) Accepts(v any) bool {
	if v == nil || t.IsZero() {
		return false
	}
	vt := reflect.TypeOf(v)
	if t.rtype != nil && len(t.args) == 0 {
		if vt == t.rtype {
			return true
		}
		if t.rtype.Kind() == reflect.Interface && vt.Implements(t.rtype) {
			return true
		}
	}
	if TypeOfValue(v).Equal(t) {
		return true
	}
	if s, ok := v.(Supertyped); ok {
		for _, st := range s.Supertypes() {
			if st.Equal(t) {
				return true
			}
		}
	}
	return false
}

// ── helpers ─────────────────────────────────────────────────────────────────

func typeName(rt reflect.Type) string {
	if rt.Kind() == reflect.Pointer {
		return "*" + typeName(rt.Elem())
	}
	if rt.Name() != "" && rt.PkgPath() != "" {
		return rt.PkgPath() + "." + rt.Name()
	}
	return rt.String()
}

func cloneTypes(ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	copy(out, ts)
	return out
}
