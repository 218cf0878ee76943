package container

import (
	"github.com/km-arc/go-ioc/framework/component"
)

// ── Built-in events ───────────────────────────────────────────────────────────

// Refreshed is published once every component of the plan is live.
type Refreshed struct {
	Container *Container
}

// Closing is published at the start of Close, before any teardown.
type Closing struct {
	Container *Container
}

// RefreshedType and ClosingType are the capability types to Listen on.
var (
	RefreshedType = component.TypeOf[Refreshed]()
	ClosingType   = component.TypeOf[Closing]()
)

// ── Bus ───────────────────────────────────────────────────────────────────────

type subscription struct {
	owner    string
	instance any
	event    component.Type
	handler  component.Handler
}

// eventBus dispatches synchronously in subscription order: plan order, then
// declaration order within a descriptor. It is written only while the
// container is being constructed.
type eventBus struct {
	subs []subscription
}

func (b *eventBus) subscribe(owner string, instance any, listeners []component.Listener) {
	for _, l := range listeners {
		b.subs = append(b.subs, subscription{
			owner:    owner,
			instance: instance,
			event:    l.Event,
			handler:  l.Handler,
		})
	}
}

// publish stops at the first failing listener and returns its error.
func (b *eventBus) publish(ev any) error {
	for _, s := range b.subs {
		if !s.event.Accepts(ev) {
			continue
		}
		if err := s.handler(s.instance, ev); err != nil {
			return &ListenerError{Component: s.owner, Event: ev, Err: err}
		}
	}
	return nil
}

// PublishEvent delivers ev to every listener whose declared event type
// accepts it. Listener errors are not isolated: the first one is returned
// and later listeners do not run.
func (c *Container) PublishEvent(ev any) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.bus.publish(ev)
}

// Listeners returns the number of registered listener bindings.
func (c *Container) Listeners() int { return len(c.bus.subs) }
