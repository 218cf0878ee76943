package plan

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/km-arc/go-ioc/framework/component"
)

// ── Plan ──────────────────────────────────────────────────────────────────────

// Resolution is one injection point with its candidates already chosen.
// Targets are plan positions; every target precedes the step that owns the
// resolution. Settings and unmatched optional points have no targets.
type Resolution struct {
	Point   component.InjectionPoint
	Targets []int
}

// Step is one descriptor at its place in the construction order.
type Step struct {
	Index      int
	Descriptor component.Descriptor
	Deps       []Resolution
}

// Plan is a validated, deterministically ordered construction sequence. It
// is immutable and can instantiate any number of independent containers.
type Plan struct {
	steps []Step
	index typeIndex
	descs []component.Descriptor // plan order, for lookups
}

// Build resolves every injection point and orders descs so dependencies
// come first. All missing and ambiguous points are reported together; a
// cycle is reported only for an otherwise resolvable graph.
//
//	p, err := plan.Build([]component.Descriptor{db, repo, service})
//	if errors.Is(err, plan.ErrCyclicDependency) { ... }
func Build(descs []component.Descriptor) (*Plan, error) {
	var errs error
	for _, d := range descs {
		errs = multierr.Append(errs, d.Validate())
	}
	if errs != nil {
		return nil, errs
	}

	idx := newTypeIndex(descs)
	resolved := make([][]Resolution, len(descs))
	deps := make([][]int, len(descs))

	for i, d := range descs {
		seen := make(map[int]bool)
		for _, p := range d.Dependencies() {
			if p.IsSetting() {
				resolved[i] = append(resolved[i], Resolution{Point: p})
				continue
			}
			targets, err := selectTargets(descs, idx[p.Type.Key()], p)
			if err != nil {
				errs = multierr.Append(errs, withDependent(err, d.Name()))
				continue
			}
			resolved[i] = append(resolved[i], Resolution{Point: p, Targets: targets})
			for _, t := range targets {
				if !seen[t] {
					seen[t] = true
					deps[i] = append(deps[i], t)
				}
			}
		}
	}
	if errs != nil {
		return nil, errs
	}

	order, cycle := stableOrder(len(descs), deps)
	if cycle != nil {
		names := make([]string, len(cycle))
		for i, c := range cycle {
			names[i] = descs[c].Name()
		}
		return nil, &CyclicDependencyError{Cycle: names}
	}

	pos := make([]int, len(descs))
	for planIdx, inputIdx := range order {
		pos[inputIdx] = planIdx
	}

	p := &Plan{
		steps: make([]Step, len(order)),
		descs: make([]component.Descriptor, len(order)),
	}
	for planIdx, inputIdx := range order {
		rs := make([]Resolution, len(resolved[inputIdx]))
		for k, r := range resolved[inputIdx] {
			targets := make([]int, len(r.Targets))
			for j, t := range r.Targets {
				targets[j] = pos[t]
			}
			rs[k] = Resolution{Point: r.Point, Targets: targets}
		}
		p.steps[planIdx] = Step{Index: planIdx, Descriptor: descs[inputIdx], Deps: rs}
		p.descs[planIdx] = descs[inputIdx]
	}
	p.index = newTypeIndex(p.descs)
	return p, nil
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.steps) }

// Steps returns a copy of the ordered steps.
func (p *Plan) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Step returns the step at plan position i.
func (p *Plan) Step(i int) Step { return p.steps[i] }

// Names returns the primary names in construction order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Descriptor.Name()
	}
	return out
}

// IndexOf returns the plan position of the descriptor whose primary name is
// name, or -1.
func (p *Plan) IndexOf(name string) int {
	for i, s := range p.steps {
		if s.Descriptor.Name() == name {
			return i
		}
	}
	return -1
}

// Lookup selects the single step providing t (optionally carrying
// qualifier) with the same rules used while building: qualifier filter,
// primary preference, ambiguity and missing errors.
func (p *Plan) Lookup(t component.Type, qualifier string) (int, error) {
	point := component.One(t).Qualified(qualifier)
	targets, err := selectTargets(p.descs, p.index[t.Key()], point)
	if err != nil {
		return -1, err
	}
	return targets[0], nil
}

// LookupAll returns every step providing t in collection order.
func (p *Plan) LookupAll(t component.Type, qualifier string) []int {
	targets, _ := selectTargets(p.descs, p.index[t.Key()], component.All(t).Qualified(qualifier))
	return targets
}

func (p *Plan) String() string {
	return fmt.Sprintf("plan%v", p.Names())
}

func withDependent(err error, dependent string) error {
	switch e := err.(type) {
	case *MissingDependencyError:
		e.Dependent = dependent
	case *AmbiguousDependencyError:
		e.Dependent = dependent
	case *NameCollisionError:
		e.Dependent = dependent
	}
	return err
}
