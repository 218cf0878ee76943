package providers_test

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/go-ioc/framework/component"
	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/metrics"
	"github.com/km-arc/go-ioc/framework/providers"
	"github.com/km-arc/go-ioc/routing"
)

// ── helpers ───────────────────────────────────────────────────────────────────

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

type german struct{}

func (german) Greet() string { return "hallo" }

var greeterType = component.TypeOf[greeter]()

// pingRoutes is an application route registrar.
func pingRoutes() component.Descriptor {
	return component.Define("pingRoutes", func(component.Args) (routing.Registrar, error) {
		return routing.RegistrarFunc(func(r *routing.Router) {
			r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })
		}), nil
	})
}

func stack(t *testing.T, metricsEnabled bool, extra ...component.Descriptor) (*container.Registry, *metrics.Observer) {
	t.Helper()
	obs := metrics.NewObserver(prometheus.NewRegistry())
	reg := container.NewRegistry()
	reg.Register(&providers.ConfigServiceProvider{Config: &config.Config{}})
	reg.Register(&providers.LogServiceProvider{Logger: zap.NewNop()})
	reg.Register(&providers.MetricsServiceProvider{Observer: obs, Enabled: metricsEnabled})
	reg.Register(&providers.RoutingServiceProvider{})
	reg.Register(&providers.HTTPServiceProvider{})
	reg.Register(&providers.DebugServiceProvider{})
	reg.Add(extra...)
	return reg, obs
}

func get(t *testing.T, rawURL string) (int, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

var localAddr = config.MapResolver{"http.addr": "127.0.0.1:0", "http.shutdown-timeout": "2s"}

// ── Full stack ────────────────────────────────────────────────────────────────

func TestStack_ServesAfterRefreshAndStopsOnClose(t *testing.T) {
	reg, obs := stack(t, true, pingRoutes())
	p, err := reg.Build()
	require.NoError(t, err)

	// registrars come before the router, the router before the server
	names := p.Names()
	assert.Less(t, p.IndexOf("pingRoutes"), p.IndexOf("router"))
	assert.Less(t, p.IndexOf("inspector"), p.IndexOf("router"))
	assert.Less(t, p.IndexOf("router"), p.IndexOf("httpServer"))
	assert.Len(t, names, 8)

	c, err := container.Instantiate(p, container.WithValueResolver(localAddr), container.WithObserver(obs))
	require.NoError(t, err)
	require.NoError(t, reg.Boot(c))

	srv := container.MustResolve[*providers.Server](c)
	base := "http://" + srv.Addr()

	code, body := get(t, base+"/ping")
	assert.Equal(t, 200, code)
	assert.Equal(t, "pong", body)

	code, body = get(t, base+"/metrics")
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `ioc_components_constructed_total{component="httpServer"} 1`)

	code, body = get(t, base+"/debug/components")
	assert.Equal(t, 200, code)
	var listing struct {
		Data struct {
			Container  string                    `json:"container"`
			Components []providers.ComponentInfo `json:"components"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &listing))
	assert.Equal(t, c.ID(), listing.Data.Container)
	require.Len(t, listing.Data.Components, 8)
	assert.Equal(t, "httpServer", listing.Data.Components[7].Name)
	assert.Equal(t, []string{"router", "logger"}, listing.Data.Components[7].Dependencies)

	require.NoError(t, c.Close())
	_, err = http.Get(base + "/ping")
	assert.Error(t, err, "server should be stopped after Close")
}

func TestStack_MetricsDisabled(t *testing.T) {
	reg, _ := stack(t, false)
	c, err := container.New(reg.Descriptors(), container.WithValueResolver(localAddr))
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, c.ByName("metricsRoutes"))
	code, _ := get(t, "http://"+container.MustResolve[*providers.Server](c).Addr()+"/metrics")
	assert.Equal(t, 404, code)
}

func TestStack_BindFailureIsRefreshFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	reg, _ := stack(t, true)
	_, err = container.New(reg.Descriptors(),
		container.WithValueResolver(config.MapResolver{"http.addr": taken.Addr().String()}))

	var ce *container.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, container.PhaseRefresh, ce.Phase)
	assert.Equal(t, "httpServer", ce.Component)
}

// ── Server ────────────────────────────────────────────────────────────────────

func TestServer_StopBeforeStart(t *testing.T) {
	s := providers.NewServer("127.0.0.1:0", http.NotFoundHandler(), time.Second, zap.NewNop())
	assert.NoError(t, s.Stop())
	assert.Equal(t, "127.0.0.1:0", s.Addr())
}

func TestServer_StartIsIdempotent(t *testing.T) {
	s := providers.NewServer("127.0.0.1:0", http.NotFoundHandler(), time.Second, zap.NewNop())
	require.NoError(t, s.Start())
	addr := s.Addr()
	require.NoError(t, s.Start())
	assert.Equal(t, addr, s.Addr())

	require.NoError(t, s.Stop())
	_, open := <-s.Errors()
	assert.False(t, open)
}

// ── Inspector ─────────────────────────────────────────────────────────────────

func inspect(t *testing.T, in *providers.Inspector, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := routing.New()
	in.Routes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestInspector_Endpoints(t *testing.T) {
	c, err := container.New([]component.Descriptor{
		component.Define("english", func(component.Args) (english, error) { return english{}, nil }).
			Provides(greeterType).Named("en").WithOrder(1),
		component.Define("german", func(component.Args) (german, error) { return german{}, nil }).
			Provides(greeterType).Named("de"),
	})
	require.NoError(t, err)

	in := &providers.Inspector{}
	in.Attach(c)

	rr := inspect(t, in, "/debug/components/english")
	assert.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), `"qualifiers":["en"]`)
	assert.Contains(t, rr.Body.String(), `"order":1`)

	assert.Equal(t, 404, inspect(t, in, "/debug/components/french").Code)

	q := url.Values{"type": {greeterType.Key()}, "qualifier": {"de"}}
	rr = inspect(t, in, "/debug/resolve?"+q.Encode())
	assert.Equal(t, 200, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"german"`)

	q.Del("qualifier")
	assert.Equal(t, http.StatusConflict, inspect(t, in, "/debug/resolve?"+q.Encode()).Code)

	q.Set("type", "nothing")
	assert.Equal(t, http.StatusNotFound, inspect(t, in, "/debug/resolve?"+q.Encode()).Code)
	assert.Equal(t, http.StatusBadRequest, inspect(t, in, "/debug/resolve").Code)

	require.NoError(t, c.Close())
	assert.Equal(t, http.StatusServiceUnavailable, inspect(t, in, "/debug/components").Code)
}

func TestInspector_Detached(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, inspect(t, &providers.Inspector{}, "/debug/components").Code)
}
