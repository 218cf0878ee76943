package container

import (
	"context"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Close publishes Closing, then destroys every live instance in reverse
// construction order: pre-destroy hooks first, then the disposer. A failure
// never stops the teardown; every error is returned combined. Calling Close
// again is a no-op that returns nil.
func (c *Container) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}

	var errs error
	if err := c.bus.publish(Closing{Container: c}); err != nil {
		errs = multierr.Append(errs, &TeardownError{Component: componentOf(err), Err: err})
	}
	errs = multierr.Append(errs, c.teardown())
	c.closed.Store(true)

	if errs != nil {
		c.logger.Warn("container closed with errors", zap.Error(errs))
	} else {
		c.logger.Info("container closed")
	}
	return errs
}

// CloseWith closes c and folds the teardown errors into *errp.
//
//	func run() (err error) {
//	    c, err := container.New(descs)
//	    if err != nil {
//	        return err
//	    }
//	    defer c.CloseWith(&err)
//	    ...
//	}
func (c *Container) CloseWith(errp *error) {
	*errp = multierr.Append(*errp, c.Close())
}

// teardown destroys the live instances, last constructed first.
func (c *Container) teardown() error {
	var errs error
	for i := len(c.instances) - 1; i >= 0; i-- {
		d := c.plan.Step(i).Descriptor
		name := d.Name()
		instance := c.instances[i]
		start := time.Now()

		var compErr error
		for _, h := range d.PreDestroyHooks() {
			if err := guard(func() error { return h(instance) }); err != nil {
				compErr = multierr.Append(compErr, &TeardownError{Component: name, Err: err})
			}
		}
		if err := guard(func() error { return dispose(instance) }); err != nil {
			compErr = multierr.Append(compErr, &TeardownError{Component: name, Err: err})
		}

		c.observer.Destroyed(name, time.Since(start), compErr)
		if compErr != nil {
			c.logger.Warn("component teardown failed", zap.String("component", name), zap.Error(compErr))
		} else {
			c.logger.Debug("component destroyed", zap.String("component", name))
		}
		errs = multierr.Append(errs, compErr)
	}
	c.instances = c.instances[:0]
	c.byName = map[string][]int{}
	return errs
}

// dispose releases the resources of instance if it exposes a release
// method. io.Closer wins over the other shapes.
func dispose(instance any) error {
	switch v := instance.(type) {
	case nil:
		return nil
	case io.Closer:
		return v.Close()
	case interface{ Close() }:
		v.Close()
		return nil
	case interface{ Shutdown(context.Context) error }:
		return v.Shutdown(context.Background())
	}
	return nil
}

func componentOf(err error) string {
	if le, ok := err.(*ListenerError); ok {
		return le.Component
	}
	return ""
}
