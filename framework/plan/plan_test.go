package plan_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/plan"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Repository interface{ Find() string }

var repoType = component.TypeOf[Repository]()

func comp(name string) component.Descriptor {
	return component.New(name, component.Named(name), func(component.Args) (any, error) {
		return name, nil
	})
}

func needs(d component.Descriptor, names ...string) component.Descriptor {
	for _, n := range names {
		d = d.Inject(component.One(component.Named(n)))
	}
	return d
}

func repo(name string) component.Descriptor {
	return comp(name).Provides(repoType)
}

func mustBuild(t *testing.T, descs ...component.Descriptor) *plan.Plan {
	t.Helper()
	p, err := plan.Build(descs)
	require.NoError(t, err)
	return p
}

// assertOrderLaw checks that every resolved target precedes its dependent.
func assertOrderLaw(t *testing.T, p *plan.Plan) {
	t.Helper()
	for _, s := range p.Steps() {
		for _, r := range s.Deps {
			for _, target := range r.Targets {
				assert.Less(t, target, s.Index, "%s must follow %s", s.Descriptor.Name(), p.Step(target).Descriptor.Name())
			}
		}
	}
}

// ── Ordering ──────────────────────────────────────────────────────────────────

func TestBuild_DependenciesComeFirst(t *testing.T) {
	p := mustBuild(t,
		needs(comp("server"), "router", "config"),
		needs(comp("router"), "config"),
		comp("config"),
	)

	assert.Equal(t, []string{"config", "router", "server"}, p.Names())
	assertOrderLaw(t, p)
}

func TestBuild_UnconstrainedKeepsInputOrder(t *testing.T) {
	p := mustBuild(t, comp("c"), comp("a"), comp("b"))
	assert.Equal(t, []string{"c", "a", "b"}, p.Names())
}

func TestBuild_StableAroundConstraints(t *testing.T) {
	p := mustBuild(t,
		comp("a"),
		needs(comp("b"), "d"),
		comp("c"),
		comp("d"),
		comp("e"),
	)
	// b waits for d, so c (ready earlier) passes it; the rest keep input order
	assert.Equal(t, []string{"a", "c", "d", "b", "e"}, p.Names())
}

func TestBuild_Deterministic(t *testing.T) {
	descs := []component.Descriptor{
		needs(comp("x"), "y"), comp("y"), needs(comp("z"), "x", "y"), comp("w"),
	}
	first := mustBuild(t, descs...).Names()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, mustBuild(t, descs...).Names())
	}
}

func TestBuild_RandomAcyclicGraphsSatisfyOrderLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(12)
		descs := make([]component.Descriptor, n)
		for i := 0; i < n; i++ {
			d := comp(fmt.Sprintf("n%d", i))
			// only depend on higher indexes: acyclic by construction
			for j := i + 1; j < n; j++ {
				if rng.Intn(3) == 0 {
					d = needs(d, fmt.Sprintf("n%d", j))
				}
			}
			descs[i] = d
		}
		rng.Shuffle(len(descs), func(a, b int) { descs[a], descs[b] = descs[b], descs[a] })

		p, err := plan.Build(descs)
		require.NoError(t, err)
		require.Equal(t, n, p.Len())
		assertOrderLaw(t, p)
	}
}

// ── Cycles ────────────────────────────────────────────────────────────────────

func TestBuild_CycleReportsPath(t *testing.T) {
	_, err := plan.Build([]component.Descriptor{
		comp("root"),
		needs(comp("a"), "b"),
		needs(comp("b"), "c"),
		needs(comp("c"), "a", "root"),
	})

	require.ErrorIs(t, err, plan.ErrCyclicDependency)
	var cyc *plan.CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []string{"a", "b", "c", "a"}, cyc.Cycle)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestBuild_SelfDependencyIsACycle(t *testing.T) {
	_, err := plan.Build([]component.Descriptor{needs(comp("loop"), "loop")})

	var cyc *plan.CyclicDependencyError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []string{"loop", "loop"}, cyc.Cycle)
}

func TestBuild_SelfInCollectionIsACycle(t *testing.T) {
	agg := repo("aggregate").Inject(component.All(repoType))
	_, err := plan.Build([]component.Descriptor{repo("a"), agg})
	assert.ErrorIs(t, err, plan.ErrCyclicDependency)
}

func TestBuild_SelfSatisfiedThroughPrimaryOther(t *testing.T) {
	// decorator provides Repository and needs the primary Repository
	decorator := repo("decorator").Inject(component.One(repoType))
	p := mustBuild(t, decorator, repo("base").Primary())

	assert.Equal(t, []string{"base", "decorator"}, p.Names())
}

func TestBuild_RandomCyclesAreRealCycles(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 30; round++ {
		n := 3 + rng.Intn(8)
		edges := make(map[string][]string)
		descs := make([]component.Descriptor, n)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("n%d", i)
			// ring guarantees a cycle; extra forward edges add noise
			targets := []string{fmt.Sprintf("n%d", (i+1)%n)}
			if rng.Intn(2) == 0 {
				targets = append(targets, fmt.Sprintf("n%d", rng.Intn(n)))
			}
			edges[name] = targets
			descs[i] = needs(comp(name), targets...)
		}

		_, err := plan.Build(descs)
		var cyc *plan.CyclicDependencyError
		require.True(t, errors.As(err, &cyc), "round %d: %v", round, err)
		require.GreaterOrEqual(t, len(cyc.Cycle), 2)
		assert.Equal(t, cyc.Cycle[0], cyc.Cycle[len(cyc.Cycle)-1])
		for k := 0; k+1 < len(cyc.Cycle); k++ {
			assert.Contains(t, edges[cyc.Cycle[k]], cyc.Cycle[k+1], "edge %s -> %s", cyc.Cycle[k], cyc.Cycle[k+1])
		}
	}
}

// ── Selection ─────────────────────────────────────────────────────────────────

func TestBuild_QualifierPrecedence(t *testing.T) {
	mysql := repo("mysqlRepo").Named("mysql")
	postgres := repo("postgresRepo").Named("postgres")
	svc := comp("svc").Inject(component.One(repoType).Qualified("mysql"))

	for _, order := range [][]component.Descriptor{
		{mysql, postgres, svc},
		{postgres, svc, mysql},
		{svc, postgres, mysql},
	} {
		p := mustBuild(t, order...)
		s := p.Step(p.IndexOf("svc"))
		require.Len(t, s.Deps[0].Targets, 1)
		assert.Equal(t, "mysqlRepo", p.Step(s.Deps[0].Targets[0]).Descriptor.Name())
	}
}

func TestBuild_QualifierWithoutMatchIsMissing(t *testing.T) {
	_, err := plan.Build([]component.Descriptor{
		repo("mysqlRepo").Named("mysql"),
		comp("svc").Inject(component.One(repoType).Qualified("oracle")),
	})
	assert.ErrorIs(t, err, plan.ErrMissingDependency)
}

func TestBuild_PrimaryTieBreak(t *testing.T) {
	svc := comp("svc").Inject(component.One(repoType))

	tests := []struct {
		name    string
		a, b    component.Descriptor
		want    string
		wantErr error
	}{
		{"first primary", repo("a").Primary(), repo("b"), "a", nil},
		{"second primary", repo("a"), repo("b").Primary(), "b", nil},
		{"neither primary", repo("a"), repo("b"), "", plan.ErrAmbiguousDependency},
		{"both primary", repo("a").Primary(), repo("b").Primary(), "", plan.ErrAmbiguousDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := plan.Build([]component.Descriptor{tt.a, tt.b, svc})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var amb *plan.AmbiguousDependencyError
				require.True(t, errors.As(err, &amb))
				assert.Equal(t, "svc", amb.Dependent)
				assert.ElementsMatch(t, []string{"a", "b"}, amb.Candidates)
				return
			}
			require.NoError(t, err)
			s := p.Step(p.IndexOf("svc"))
			assert.Equal(t, tt.want, p.Step(s.Deps[0].Targets[0]).Descriptor.Name())
		})
	}
}

func TestBuild_OptionalSingle(t *testing.T) {
	p := mustBuild(t, comp("svc").Inject(component.Maybe(repoType)))
	assert.Empty(t, p.Step(0).Deps[0].Targets)

	_, err := plan.Build([]component.Descriptor{
		repo("a"), repo("b"), comp("svc").Inject(component.Maybe(repoType)),
	})
	assert.ErrorIs(t, err, plan.ErrAmbiguousDependency, "optional points still reject ambiguity")
}

func TestBuild_CollectionOrdering(t *testing.T) {
	svc := comp("svc").Inject(component.All(repoType)).Inject(component.MapOf(repoType))
	p := mustBuild(t,
		svc,
		repo("three").WithOrder(3),
		repo("one").WithOrder(1),
		repo("two").WithOrder(2),
		repo("zeta"),
		repo("alpha"),
	)

	s := p.Step(p.IndexOf("svc"))
	var got []string
	for _, target := range s.Deps[0].Targets {
		got = append(got, p.Step(target).Descriptor.Name())
	}
	assert.Equal(t, []string{"one", "two", "three", "alpha", "zeta"}, got)
	assert.Len(t, s.Deps[1].Targets, 5)
	assertOrderLaw(t, p)
}

func TestBuild_EmptyCollectionIsFine(t *testing.T) {
	p := mustBuild(t, comp("svc").Inject(component.All(repoType)))
	assert.Empty(t, p.Step(0).Deps[0].Targets)
}

func TestBuild_CollectionQualifierFilter(t *testing.T) {
	p := mustBuild(t,
		repo("a").Named("hot"),
		repo("b"),
		repo("c").Named("hot"),
		comp("svc").Inject(component.All(repoType).Qualified("hot")),
	)
	s := p.Step(p.IndexOf("svc"))
	assert.Len(t, s.Deps[0].Targets, 2)
}

func TestBuild_NameMapRejectsSharedPrimaryName(t *testing.T) {
	mysql := repo("repo").Named("mysql").Primary()
	postgres := repo("repo").Named("postgres")

	_, err := plan.Build([]component.Descriptor{
		mysql, postgres, comp("svc").Inject(component.MapOf(repoType)),
	})
	require.ErrorIs(t, err, plan.ErrNameCollision)
	assert.True(t, plan.IsStructural(err))

	var nc *plan.NameCollisionError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, "svc", nc.Dependent)
	assert.Equal(t, "repo", nc.Name)
	assert.Equal(t, 2, nc.Candidates)

	// collections have no keys, and a qualifier can narrow the map to one
	p := mustBuild(t,
		mysql, postgres,
		comp("all").Inject(component.All(repoType)),
		comp("one").Inject(component.MapOf(repoType).Qualified("postgres")),
	)
	assert.Len(t, p.Step(p.IndexOf("all")).Deps[0].Targets, 2)
	assert.Len(t, p.Step(p.IndexOf("one")).Deps[0].Targets, 1)
}

func TestBuild_GenericCapabilities(t *testing.T) {
	box := component.Named("Box")
	bazBox := component.Generic(box, component.Named("Baz"))
	quxBox := component.Generic(box, component.Named("Qux"))

	p := mustBuild(t,
		comp("bazBox").Provides(bazBox),
		comp("quxBox").Provides(quxBox),
		comp("svc").Inject(component.One(quxBox)),
	)
	s := p.Step(p.IndexOf("svc"))
	assert.Equal(t, "quxBox", p.Step(s.Deps[0].Targets[0]).Descriptor.Name())
}

func TestBuild_SettingsCreateNoEdges(t *testing.T) {
	p := mustBuild(t, comp("svc").Inject(component.Setting("svc.port", 80)))
	require.Len(t, p.Step(0).Deps, 1)
	assert.True(t, p.Step(0).Deps[0].Point.IsSetting())
	assert.Empty(t, p.Step(0).Deps[0].Targets)
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestBuild_ReportsAllResolutionErrors(t *testing.T) {
	_, err := plan.Build([]component.Descriptor{
		needs(comp("a"), "ghost"),
		needs(comp("b"), "phantom"),
		repo("r1"), repo("r2"),
		comp("c").Inject(component.One(repoType)),
	})

	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 3)
	assert.True(t, plan.IsStructural(err))

	var missing *plan.MissingDependencyError
	require.True(t, errors.As(errs[0], &missing))
	assert.Equal(t, "a", missing.Dependent)
	assert.Contains(t, missing.Error(), "ghost")
}

func TestBuild_InvalidDescriptor(t *testing.T) {
	_, err := plan.Build([]component.Descriptor{{}})
	assert.ErrorIs(t, err, component.ErrInvalidDescriptor)
	assert.False(t, plan.IsStructural(err))
}

// ── Lookup ────────────────────────────────────────────────────────────────────

func TestPlan_Lookup(t *testing.T) {
	p := mustBuild(t,
		repo("mysqlRepo").Named("mysql"),
		repo("postgresRepo").Named("postgres").Primary(),
		comp("other"),
	)

	i, err := p.Lookup(repoType, "")
	require.NoError(t, err)
	assert.Equal(t, "postgresRepo", p.Step(i).Descriptor.Name())

	i, err = p.Lookup(repoType, "mysql")
	require.NoError(t, err)
	assert.Equal(t, "mysqlRepo", p.Step(i).Descriptor.Name())

	_, err = p.Lookup(component.Named("nothing"), "")
	var missing *plan.MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Empty(t, missing.Dependent)

	assert.Len(t, p.LookupAll(repoType, ""), 2)
	assert.Equal(t, -1, p.IndexOf("absent"))
}

func TestPlan_IsReusable(t *testing.T) {
	p := mustBuild(t, comp("a"), needs(comp("b"), "a"))
	steps := p.Steps()
	steps[0] = plan.Step{}
	assert.Equal(t, "a", p.Step(0).Descriptor.Name(), "Steps returns a copy")
}
