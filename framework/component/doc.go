// Package component holds the static model the container works from: a
// Descriptor per injectable unit, the capability Types it provides, and the
// InjectionPoints it requires.
//
// # Overview
//
// Go has no constructor reflection or annotations, so components are
// described explicitly. A descriptor carries:
//
//   - names: the primary identity followed by qualifiers
//   - provided types: its own type plus any interfaces / generic identities
//   - a factory receiving resolved constructor arguments
//   - injection points (single, optional, collection, name map, setting)
//   - post-construct / pre-destroy hooks and event listeners
//   - an order used when collections are assembled
//
// # Defining components
//
//	db := component.Define("db", func(args component.Args) (*sql.DB, error) {
//	    return sql.Open("mysql", component.Arg[string](args, 0))
//	}).Inject(component.Setting("db.dsn", "root@/app")).
//	    PreDestroy(component.HookOf((*sql.DB).Close))
//
//	mysql := component.Define("mysqlRepo", newMySQLRepo).
//	    Provides(component.TypeOf[Repository]()).
//	    Named("mysql").
//	    Inject(component.One(component.TypeOf[*sql.DB]()))
//
//	svc := component.Define("users", newUserService).
//	    Inject(component.One(component.TypeOf[Repository]()).Qualified("mysql")).
//	    Inject(component.All(component.TypeOf[Plugin]()))
//
// # Generic capabilities
//
// Type arguments are part of the identity:
//
//	box := component.Named("Box")
//	d.Provides(component.Generic(box, component.TypeOf[Baz]()))
//
// A point asking for Box[Qux] never matches that descriptor.
//
// # Immutability
//
// Builder methods return a copy. Keep the returned value:
//
//	d = d.Named("primary-db")   // correct
//	d.Named("primary-db")       // no effect on d
package component
