package routing_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-ioc/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	r := routing.New()
	r.Get("/hello", okHandler)
	r.Post("/users", okHandler)
	r.Put("/users/{id}", okHandler)
	r.Patch("/users/{id}", okHandler)
	r.Delete("/users/{id}", okHandler)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/hello"},
		{http.MethodPost, "/users"},
		{http.MethodPut, "/users/1"},
		{http.MethodPatch, "/users/1"},
		{http.MethodDelete, "/users/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rr := do(t, r, tt.method, tt.path); rr.Code != http.StatusOK {
				t.Errorf("got %d want 200", rr.Code)
			}
		})
	}
}

func TestRouter_Handle(t *testing.T) {
	r := routing.New()
	r.Handle("/metrics", http.HandlerFunc(okHandler))

	for _, method := range []string{"GET", "POST"} {
		if rr := do(t, r, method, "/metrics"); rr.Code != http.StatusOK {
			t.Errorf("%s /metrics: got %d want 200", method, rr.Code)
		}
	}
}

// ── 404 for unregistered routes ──────────────────────────────────────────────

func TestRouter_NotFound(t *testing.T) {
	r := routing.New()
	rr := do(t, r, http.MethodGet, "/not-registered")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

// ── Route params ─────────────────────────────────────────────────────────────

func TestRouter_Param(t *testing.T) {
	r := routing.New()
	r.Get("/components/{name}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(routing.Param(req, "name")))
	})

	rr := do(t, r, http.MethodGet, "/components/mysqlRepo")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d want 200", rr.Code)
	}
	if rr.Body.String() != "mysqlRepo" {
		t.Errorf("got body %q want %q", rr.Body.String(), "mysqlRepo")
	}
}

// ── Prefix / Group ───────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r := routing.New()
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", okHandler)
	})

	if rr := do(t, r, http.MethodGet, "/api/v1/users"); rr.Code != http.StatusOK {
		t.Errorf("GET /api/v1/users: got %d want 200", rr.Code)
	}
	if rr := do(t, r, http.MethodGet, "/users"); rr.Code != http.StatusNotFound {
		t.Errorf("GET /users: expected 404, got %d", rr.Code)
	}
}

func TestRouter_Group_Middleware(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	r := routing.New()
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})
	r.Get("/public", okHandler)

	do(t, r, http.MethodGet, "/public")
	if called {
		t.Error("middleware should not run outside its group")
	}
	do(t, r, http.MethodGet, "/protected")
	if !called {
		t.Error("expected middleware to be called")
	}
}

// ── Registrars ───────────────────────────────────────────────────────────────

func TestRouter_Register(t *testing.T) {
	var order []string
	first := routing.RegistrarFunc(func(r *routing.Router) {
		order = append(order, "first")
		r.Get("/a", okHandler)
	})
	second := routing.RegistrarFunc(func(r *routing.Router) {
		order = append(order, "second")
		r.Prefix("/b", func(b *routing.Router) { b.Get("/", okHandler) })
	})

	r := routing.New()
	r.Register(first, second)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order: got %v", order)
	}
	if rr := do(t, r, http.MethodGet, "/b/"); rr.Code != http.StatusOK {
		t.Errorf("GET /b/: got %d want 200", rr.Code)
	}

	routes := r.Routes()
	if len(routes) != 2 {
		t.Fatalf("Routes: got %v", routes)
	}
	if routes[0].Method != "GET" || routes[0].Pattern != "/a" {
		t.Errorf("Routes[0]: got %+v", routes[0])
	}
}

// ── Request logging ──────────────────────────────────────────────────────────

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := routing.New(routing.RequestLogger(zap.New(core)))
	r.Get("/ping", okHandler)

	do(t, r, http.MethodGet, "/ping")
	do(t, r, http.MethodGet, "/missing")

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 2 {
		t.Fatalf("log entries: got %d want 2", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/ping" || fields["status"] != int64(200) {
		t.Errorf("first entry: got %v", fields)
	}
	if entries[1].ContextMap()["status"] != int64(404) {
		t.Errorf("second entry status: got %v", entries[1].ContextMap()["status"])
	}
}

func TestRouter_HandlerInterface(t *testing.T) {
	r := routing.New()
	r.Get("/ping", okHandler)
	var _ http.Handler = r.Handler()
}
