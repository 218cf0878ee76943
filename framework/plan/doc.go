// Package plan turns a set of component descriptors into an ordered,
// validated construction plan.
//
// Build is a pure function. For each injection point it picks candidates by
// capability type, then qualifier, then primary marker; collection points
// take every candidate ordered by (order, name). Each chosen candidate
// becomes a "must come after" edge and the descriptors are sorted
// topologically. Among descriptors with no constraint between them the
// input order is kept, so the same input always yields the same plan.
//
// Structural problems are returned before anything is instantiated:
//
//	p, err := plan.Build(descs)
//	switch {
//	case errors.Is(err, plan.ErrMissingDependency):
//	case errors.Is(err, plan.ErrAmbiguousDependency):
//	case errors.Is(err, plan.ErrCyclicDependency):
//	    var cyc *plan.CyclicDependencyError
//	    errors.As(err, &cyc) // cyc.Cycle == [a b a]
//	}
//
// Missing and ambiguous points are collected with multierr so one build
// reports all of them; multierr.Errors(err) splits them again.
package plan
