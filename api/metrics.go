// Package api provides Prometheus metrics for the FoldCache engine.
package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foldcache/foldcache/cache"
)

// Metrics holds all Prometheus metrics for one cache instance.
//
// Cache-level series are pulled from the engine's own lock-free counters at
// scrape time; only the request series are updated by the serving path.
type Metrics struct {
	// Request metrics, updated by the wire service
	RequestsTotal  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance with the given namespace, backed by
// its own registry, and binds the cache-level series to c.
func NewMetrics(namespace string, c *cache.Cache) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of wire requests by operation and status",
		}, []string{"op", "status"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "Wire request handling latency in seconds",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"op"}),
		registry: registry,
	}

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hits_total",
		Help:      "Total number of cache hits",
	}, func() float64 { return float64(c.Stats().Hits) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "misses_total",
		Help:      "Total number of cache misses",
	}, func() float64 { return float64(c.Stats().Misses) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "puts_total",
		Help:      "Total number of put operations",
	}, func() float64 { return float64(c.Stats().Puts) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evictions_total",
		Help:      "Total number of slots evicted by replacement",
	}, func() float64 { return float64(c.Stats().Evictions) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "removes_total",
		Help:      "Total number of explicit removals",
	}, func() float64 { return float64(c.Stats().Removes) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "occupied_slots",
		Help:      "Approximate number of occupied slots",
	}, func() float64 { return float64(c.Len()) })

	capacity := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "capacity_slots",
		Help:      "Fixed total number of slots",
	})
	capacity.Set(float64(c.Capacity()))

	return m
}

// ObserveRequest records one handled wire request.
func (m *Metrics) ObserveRequest(op, status string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(op, status).Inc()
	m.RequestLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler exposing this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
