// Package metrics exposes container lifecycle timings to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-ioc/framework/container"
)

const namespace = "ioc"

// Observer is a container.Observer backed by Prometheus collectors.
//
//	obs := metrics.NewObserver(prometheus.NewRegistry())
//	c, err := container.Instantiate(p, container.WithObserver(obs))
type Observer struct {
	constructed  *prometheus.CounterVec
	construction *prometheus.HistogramVec
	failures     *prometheus.CounterVec
	teardown     *prometheus.HistogramVec
	teardownErrs *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ container.Observer = (*Observer)(nil)

// NewObserver creates the collectors and registers them with reg.
func NewObserver(reg *prometheus.Registry) *Observer {
	o := &Observer{
		constructed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_constructed_total",
			Help:      "Components constructed successfully.",
		}, []string{"component"}),
		construction: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_construction_seconds",
			Help:      "Time spent building a component, hooks included.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"component"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_failures_total",
			Help:      "Component construction failures by phase.",
		}, []string{"component", "phase"}),
		teardown: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "component_teardown_seconds",
			Help:      "Time spent destroying a component.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"component"}),
		teardownErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_teardown_errors_total",
			Help:      "Components whose teardown reported an error.",
		}, []string{"component"}),
		gatherer: reg,
	}
	reg.MustRegister(o.constructed, o.construction, o.failures, o.teardown, o.teardownErrs)
	return o
}

func (o *Observer) Constructed(name string, elapsed time.Duration) {
	o.constructed.WithLabelValues(name).Inc()
	o.construction.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (o *Observer) Failed(name string, phase container.Phase, _ error) {
	o.failures.WithLabelValues(name, string(phase)).Inc()
}

func (o *Observer) Destroyed(name string, elapsed time.Duration, err error) {
	o.teardown.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		o.teardownErrs.WithLabelValues(name).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})
}
