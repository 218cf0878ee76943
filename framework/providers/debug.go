package providers

import (
	"net/http"
	"sync/atomic"

	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/plan"
	gohttp "github.com/km-arc/go-ioc/http"
	"github.com/km-arc/go-ioc/routing"
)

// Inspector serves read-only views of the running container under /debug.
// It learns the container from the Refreshed event.
type Inspector struct {
	c atomic.Pointer[container.Container]
}

// ComponentInfo is the JSON shape of one plan step.
type ComponentInfo struct {
	Index        int      `json:"index"`
	Name         string   `json:"name"`
	Qualifiers   []string `json:"qualifiers,omitempty"`
	Types        []string `json:"types"`
	Order        *int     `json:"order,omitempty"`
	Primary      bool     `json:"primary,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Listeners    int      `json:"listeners,omitempty"`
}

// Attach makes c the inspected container.
func (i *Inspector) Attach(c *container.Container) { i.c.Store(c) }

func (i *Inspector) Routes(r *routing.Router) {
	r.Prefix("/debug", func(d *routing.Router) {
		d.Get("/components", i.list)
		d.Get("/components/{name}", i.show)
		d.Get("/resolve", i.resolve)
	})
}

func (i *Inspector) current(w http.ResponseWriter) (*container.Container, bool) {
	c := i.c.Load()
	if c == nil || c.Closed() {
		gohttp.NewResponse(w).Fail(container.ErrClosed)
		return nil, false
	}
	return c, true
}

// GET /debug/components
func (i *Inspector) list(w http.ResponseWriter, r *http.Request) {
	c, ok := i.current(w)
	if !ok {
		return
	}
	steps := c.Plan().Steps()
	out := make([]ComponentInfo, len(steps))
	for k, s := range steps {
		out[k] = describeStep(c.Plan(), s)
	}
	gohttp.NewResponse(w).Success(map[string]any{
		"container":  c.ID(),
		"components": out,
		"listeners":  c.Listeners(),
	})
}

// GET /debug/components/{name}
func (i *Inspector) show(w http.ResponseWriter, r *http.Request) {
	c, ok := i.current(w)
	if !ok {
		return
	}
	idx := c.Plan().IndexOf(routing.Param(r, "name"))
	if idx < 0 {
		gohttp.NewResponse(w).NotFound("no such component")
		return
	}
	gohttp.NewResponse(w).Success(describeStep(c.Plan(), c.Plan().Step(idx)))
}

// GET /debug/resolve?type=<key>&qualifier=<q>
func (i *Inspector) resolve(w http.ResponseWriter, r *http.Request) {
	c, ok := i.current(w)
	if !ok {
		return
	}
	key := r.URL.Query().Get("type")
	if key == "" {
		gohttp.NewResponse(w).Error(http.StatusBadRequest, "type is required")
		return
	}
	qualifier := r.URL.Query().Get("qualifier")
	idx, err := c.Plan().Lookup(component.Named(key), qualifier)
	if err != nil {
		gohttp.NewResponse(w).Fail(err)
		return
	}
	gohttp.NewResponse(w).Success(describeStep(c.Plan(), c.Plan().Step(idx)))
}

func describeStep(p *plan.Plan, s plan.Step) ComponentInfo {
	d := s.Descriptor
	info := ComponentInfo{
		Index:      s.Index,
		Name:       d.Name(),
		Qualifiers: d.Qualifiers(),
		Primary:    d.IsPrimary(),
		Listeners:  len(d.Listeners()),
	}
	if o := d.Order(); o != component.Unordered {
		info.Order = &o
	}
	for _, t := range d.ProvidedTypes() {
		info.Types = append(info.Types, t.Key())
	}
	for _, res := range s.Deps {
		for _, t := range res.Targets {
			info.Dependencies = append(info.Dependencies, p.Step(t).Descriptor.Name())
		}
	}
	return info
}
