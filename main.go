package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/providers"
	gohttp "github.com/km-arc/go-ioc/http"
	"github.com/km-arc/go-ioc/routing"
)

// ── Stores ────────────────────────────────────────────────────────────────────

// Store keeps stock levels per SKU.
type Store interface {
	Get(sku string) (int, bool)
	Set(sku string, qty int)
	All() map[string]int
}

type memoryStore struct {
	dsn string
	mu  sync.RWMutex
	qty map[string]int
}

func newMemoryStore(dsn string) *memoryStore {
	return &memoryStore{dsn: dsn, qty: map[string]int{}}
}

func (s *memoryStore) Get(sku string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.qty[sku]
	return q, ok
}

func (s *memoryStore) Set(sku string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qty[sku] = qty
}

func (s *memoryStore) All() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.qty))
	for k, v := range s.qty {
		out[k] = v
	}
	return out
}

// Close is picked up as the disposer.
func (s *memoryStore) Close() error { return nil }

var storeType = component.TypeOf[Store]()

// ── Inventory ─────────────────────────────────────────────────────────────────

// StockChanged is published whenever the inventory adjusts a SKU.
type StockChanged struct {
	SKU string
	Qty int
}

// Inventory writes to the primary store and publishes StockChanged.
type Inventory struct {
	store  Store
	stores map[string]Store
	logger *zap.Logger
	events *container.Container
}

func (inv *Inventory) Adjust(sku string, qty int) error {
	inv.store.Set(sku, qty)
	if inv.events == nil {
		return nil
	}
	return inv.events.PublishEvent(StockChanged{SKU: sku, Qty: qty})
}

func (inv *Inventory) Routes(r *routing.Router) {
	r.Prefix("/api/inventory", func(api *routing.Router) {
		api.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			gohttp.NewResponse(w).Success(inv.store.All())
		})
		api.Get("/stores", func(w http.ResponseWriter, _ *http.Request) {
			names := make([]string, 0, len(inv.stores))
			for n := range inv.stores {
				names = append(names, n)
			}
			sort.Strings(names)
			gohttp.NewResponse(w).Success(names)
		})
		api.Get("/{sku}", func(w http.ResponseWriter, r *http.Request) {
			q, ok := inv.store.Get(routing.Param(r, "sku"))
			if !ok {
				gohttp.NewResponse(w).NotFound("unknown sku")
				return
			}
			gohttp.NewResponse(w).Success(map[string]int{"qty": q})
		})
	})
}

// Auditor mirrors every change into the store it was given.
type Auditor struct {
	mirror Store
	logger *zap.Logger
}

func (a *Auditor) onStock(ev StockChanged) error {
	a.mirror.Set(ev.SKU, ev.Qty)
	a.logger.Info("stock audited", zap.String("sku", ev.SKU), zap.Int("qty", ev.Qty))
	return nil
}

// ── InventoryServiceProvider ──────────────────────────────────────────────────

type InventoryServiceProvider struct{}

func (InventoryServiceProvider) Register(r *container.Registry) {
	r.Add(
		component.Define("mysql", func(a component.Args) (Store, error) {
			return newMemoryStore(component.Arg[string](a, 0)), nil
		}).
			Inject(component.Setting("db.mysql.url", "mysql://localhost/inventory")).
			Primary(),

		component.Define("postgres", func(a component.Args) (Store, error) {
			return newMemoryStore(component.Arg[string](a, 0)), nil
		}).
			Inject(component.Setting("db.postgres.url", "postgres://localhost/inventory")),

		component.Define("inventory", func(a component.Args) (*Inventory, error) {
			return &Inventory{
				store:  component.Arg[Store](a, 0),
				stores: component.Map[Store](a, 1),
				logger: component.Arg[*zap.Logger](a, 2),
			}, nil
		}).
			Inject(component.One(storeType)).
			Inject(component.MapOf(storeType)).
			Inject(component.One(providers.LoggerType)).
			Provides(providers.RegistrarType).
			Listen(container.RefreshedType, component.On(func(inv *Inventory, ev container.Refreshed) error {
				inv.events = ev.Container
				return inv.Adjust("widget", 10)
			})),

		component.Define("auditor", func(a component.Args) (*Auditor, error) {
			return &Auditor{mirror: component.Arg[Store](a, 0), logger: component.Arg[*zap.Logger](a, 1)}, nil
		}).
			Inject(component.One(storeType)).
			Inject(component.One(providers.LoggerType)).
			Listen(component.TypeOf[StockChanged](), component.On(func(a *Auditor, ev StockChanged) error {
				return a.onStock(ev)
			})),
	)

	// the auditor mirrors into postgres instead of the primary store
	r.When("auditor").Needs(storeType).Give("postgres")
}

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		panic(err)
	}
	defer logging.Sync(application.Logger)

	application.Register(InventoryServiceProvider{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("application failed", zap.Error(err))
		_ = logging.Sync(application.Logger)
		os.Exit(1)
	}
}
