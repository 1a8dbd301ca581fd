package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the server's Prometheus metrics on a private registry,
// so tests and embedded use never collide with the global one.
type Metrics struct {
	registry       *prometheus.Registry
	rendersTotal   prometheus.Counter
	renderDuration prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

// NewMetrics creates a fresh registry with the render and cache metrics
// registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	rendersTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cartograph",
		Name:      "renders_total",
		Help:      "Count of map renders performed by the preview server",
	})
	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cartograph",
		Name:      "render_duration_seconds",
		Help:      "Duration of map renders",
		Buckets:   prometheus.DefBuckets,
	})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cartograph",
		Name:      "cache_hits_total",
		Help:      "Count of render cache hits",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cartograph",
		Name:      "cache_misses_total",
		Help:      "Count of render cache misses",
	})

	registry.MustRegister(rendersTotal, renderDuration, cacheHits, cacheMisses)

	return &Metrics{
		registry:       registry,
		rendersTotal:   rendersTotal,
		renderDuration: renderDuration,
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
	}
}

// ObserveRender records one completed render.
func (m *Metrics) ObserveRender(duration time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.Inc()
	m.renderDuration.Observe(duration.Seconds())
}

// IncCacheHit records a render served from cache.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss records a render that had to be computed.
func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
