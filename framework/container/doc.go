// Package container executes a plan: it builds every component in order,
// publishes events between them and tears everything down in reverse.
//
// # Lifecycle
//
//  1. Describe: providers add component descriptors to a Registry
//  2. Plan: registry.Build() resolves and orders them (framework/plan)
//  3. Instantiate: container.Instantiate(p, opts...) constructs each step
//  4. Use: Get / Resolve[T] / PublishEvent
//  5. Close: reverse teardown, exactly once
//
// # Construction
//
// For every step the engine resolves the injected values (settings through
// the ValueResolver, single, collection or name-map values from instances
// already built), calls the factory, applies setter injections, records the
// instance as live, runs post-construct hooks and registers its listeners.
// A Stopper is polled between two steps.
//
// If anything fails, every live instance is torn down in reverse order and
// the error is returned; teardown errors end up in its Cleanup field:
//
//	c, err := container.Instantiate(p, container.WithContext(ctx))
//	var ce *container.ConstructionError
//	switch {
//	case errors.As(err, &ce):
//	    log.Printf("%s failed in %s: %v", ce.Component, ce.Phase, ce.Err)
//	case errors.Is(err, container.ErrInterrupted):
//	}
//
// # Resolving
//
//	raw, err := c.Get(component.TypeOf[Repository](), "mysql")
//	repo := container.MustResolve[Repository](c, "mysql")
//
// # Events
//
// Listeners are called synchronously in registration order. Refreshed is
// published once everything is up and Closing right before teardown.
//
//	component.Define("audit", newAudit).
//	    Listen(component.TypeOf[UserCreated](), component.On(func(a *Audit, e UserCreated) error {
//	        return a.Record(e)
//	    }))
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(r *container.Registry) {
//	    r.Add(component.Define("mailer", newSMTPMailer).
//	        Inject(component.Setting("mail.host", "localhost")))
//	}
//
//	func (p *AppServiceProvider) Boot(c *container.Container) error {
//	    return nil // the container is live here
//	}
//
//	registry := container.NewRegistry()
//	registry.Register(&AppServiceProvider{})
//	p, err := registry.Build()
package container
