package plan

import (
	"sort"

	"github.com/km-arc/go-ioc/framework/component"
)

// typeIndex maps a capability key to candidate positions in insertion order.
type typeIndex map[string][]int

func newTypeIndex(descs []component.Descriptor) typeIndex {
	idx := make(typeIndex)
	for i, d := range descs {
		seen := make(map[string]bool)
		for _, t := range d.ProvidedTypes() {
			k := t.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			idx[k] = append(idx[k], i)
		}
	}
	return idx
}

// selectTargets applies the selection rules of one injection point to the
// candidates providing its type. Errors carry no Dependent; callers fill it.
//
//   - a qualifier keeps only candidates carrying that name
//   - Single / OptionalSingle: one candidate wins outright, otherwise a
//     unique primary wins, otherwise the point is ambiguous
//   - Single with nothing left is missing; OptionalSingle resolves to none
//   - Collection / NameMap take everything, ordered by order then name
//   - NameMap rejects candidates sharing a primary name
func selectTargets(descs []component.Descriptor, candidates []int, p component.InjectionPoint) ([]int, error) {
	matched := candidates
	if p.Qualifier != "" {
		matched = make([]int, 0, len(candidates))
		for _, c := range candidates {
			if descs[c].HasName(p.Qualifier) {
				matched = append(matched, c)
			}
		}
	}

	if p.Multiplicity.IsMany() {
		out := append([]int(nil), matched...)
		sort.SliceStable(out, func(a, b int) bool {
			da, db := descs[out[a]], descs[out[b]]
			if da.Order() != db.Order() {
				return da.Order() < db.Order()
			}
			return da.Name() < db.Name()
		})
		if p.Multiplicity == component.NameMap {
			if err := uniqueNames(descs, out, p); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	switch len(matched) {
	case 0:
		if p.Multiplicity == component.OptionalSingle {
			return nil, nil
		}
		return nil, &MissingDependencyError{Point: p}
	case 1:
		return []int{matched[0]}, nil
	}

	var primaries []int
	for _, c := range matched {
		if descs[c].IsPrimary() {
			primaries = append(primaries, c)
		}
	}
	if len(primaries) == 1 {
		return primaries, nil
	}
	names := make([]string, len(matched))
	for i, c := range matched {
		names[i] = descs[c].Name()
	}
	return nil, &AmbiguousDependencyError{Point: p, Candidates: names}
}

// uniqueNames fails when two targets would land on the same map key.
func uniqueNames(descs []component.Descriptor, targets []int, p component.InjectionPoint) error {
	count := make(map[string]int, len(targets))
	for _, t := range targets {
		count[descs[t].Name()]++
	}
	for _, t := range targets {
		if n := descs[t].Name(); count[n] > 1 {
			return &NameCollisionError{Point: p, Name: n, Candidates: count[n]}
		}
	}
	return nil
}
