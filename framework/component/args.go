package component

import "fmt"

// Args are the resolved constructor values, indexed by argument position.
// Single points hold the instance (nil when an optional point matched
// nothing), Collection points hold []any and NameMap points hold
// map[string]any.
type Args []any

// Arg returns argument i as T. A nil argument yields the zero value; a
// value of the wrong type panics, which the container reports as a factory
// failure.
func Arg[T any](args Args, i int) T {
	v, _ := Optional[T](args, i)
	return v
}

// Optional returns argument i as T and whether it was present.
func Optional[T any](args Args, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(args) {
		panic(fmt.Sprintf("component: argument %d out of range (%d arguments)", i, len(args)))
	}
	if args[i] == nil {
		return zero, false
	}
	typed, ok := args[i].(T)
	if !ok {
		panic(fmt.Sprintf("component: argument %d is %T, not %T", i, args[i], zero))
	}
	return typed, true
}

// Slice returns a Collection argument as []T, preserving order.
func Slice[T any](args Args, i int) []T {
	raw := Arg[[]any](args, i)
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		typed, ok := v.(T)
		if !ok {
			var zero T
			panic(fmt.Sprintf("component: collection argument %d holds %T, not %T", i, v, zero))
		}
		out = append(out, typed)
	}
	return out
}

// Map returns a NameMap argument as map[string]T.
func Map[T any](args Args, i int) map[string]T {
	raw := Arg[map[string]any](args, i)
	out := make(map[string]T, len(raw))
	for k, v := range raw {
		typed, ok := v.(T)
		if !ok {
			var zero T
			panic(fmt.Sprintf("component: map argument %d holds %T at %q, not %T", i, v, k, zero))
		}
		out[k] = typed
	}
	return out
}

// ── Typed adapters ────────────────────────────────────────────────────────────

// HookOf adapts a typed hook.
//
//	d.PostConstruct(component.HookOf((*Server).Start))
func HookOf[T any](fn func(T) error) Hook {
	return func(instance any) error {
		typed, ok := instance.(T)
		if !ok {
			var zero T
			return fmt.Errorf("component: hook expects %T, got %T", zero, instance)
		}
		return fn(typed)
	}
}

// SetterOf adapts a typed setter.
func SetterOf[T, V any](fn func(T, V) error) SetterFunc {
	return func(instance, value any) error {
		typed, ok := instance.(T)
		if !ok {
			var zero T
			return fmt.Errorf("component: setter expects instance %T, got %T", zero, instance)
		}
		var v V
		if value != nil {
			if v, ok = value.(V); !ok {
				return fmt.Errorf("component: setter expects value %T, got %T", v, value)
			}
		}
		return fn(typed, v)
	}
}

// On adapts a typed event handler. Events that are not E are ignored, which
// lets one handler listen on an interface family.
func On[T, E any](fn func(T, E) error) Handler {
	return func(instance, event any) error {
		typed, ok := instance.(T)
		if !ok {
			var zero T
			return fmt.Errorf("component: listener expects instance %T, got %T", zero, instance)
		}
		ev, ok := event.(E)
		if !ok {
			return nil
		}
		return fn(typed, ev)
	}
}
