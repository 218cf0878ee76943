package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/km-arc/go-ioc/framework/component"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrMissingDependency   = errors.New("missing dependency")
	ErrAmbiguousDependency = errors.New("ambiguous dependency")
	ErrCyclicDependency    = errors.New("cyclic dependency")
	ErrNameCollision       = errors.New("name collision")
)

// MissingDependencyError: a Single point matched no candidate. Dependent is
// empty when the error comes from a lookup rather than a plan build.
type MissingDependencyError struct {
	Dependent string
	Point     component.InjectionPoint
}

func (e *MissingDependencyError) Error() string {
	if e.Dependent == "" {
		return fmt.Sprintf("plan: no component satisfies %s", e.Point)
	}
	return fmt.Sprintf("plan: %s: no component satisfies %s", e.Dependent, e.Point)
}

func (e *MissingDependencyError) Is(target error) bool { return target == ErrMissingDependency }

// AmbiguousDependencyError: a single-valued point matched several candidates
// and no unique primary among them.
type AmbiguousDependencyError struct {
	Dependent  string
	Point      component.InjectionPoint
	Candidates []string
}

func (e *AmbiguousDependencyError) Error() string {
	list := strings.Join(e.Candidates, ", ")
	if e.Dependent == "" {
		return fmt.Sprintf("plan: %s is ambiguous: [%s]", e.Point, list)
	}
	return fmt.Sprintf("plan: %s: %s is ambiguous: [%s]", e.Dependent, e.Point, list)
}

func (e *AmbiguousDependencyError) Is(target error) bool { return target == ErrAmbiguousDependency }

// NameCollisionError: a NameMap point matched several candidates sharing
// the primary name Name, so the map could not hold all of them.
type NameCollisionError struct {
	Dependent  string
	Point      component.InjectionPoint
	Name       string
	Candidates int
}

func (e *NameCollisionError) Error() string {
	if e.Dependent == "" {
		return fmt.Sprintf("plan: %s: %d candidates share the name %q", e.Point, e.Candidates, e.Name)
	}
	return fmt.Sprintf("plan: %s: %s: %d candidates share the name %q", e.Dependent, e.Point, e.Candidates, e.Name)
}

func (e *NameCollisionError) Is(target error) bool { return target == ErrNameCollision }

// CyclicDependencyError carries the cycle as primary names, dependent
// first, with the first element repeated at the end: [a b c a] reads
// "a needs b needs c needs a".
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "plan: dependency cycle: " + strings.Join(e.Cycle, " -> ")
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// IsStructural reports whether err (or anything it wraps) is a plan-build
// structural error.
func IsStructural(err error) bool {
	return errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrAmbiguousDependency) ||
		errors.Is(err, ErrNameCollision) ||
		errors.Is(err, ErrCyclicDependency)
}
