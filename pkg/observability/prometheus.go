package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/kgviz/pkg/graph"
)

// Collector implements every hook interface with Prometheus metrics held in
// a private registry, so several collectors can coexist (e.g. in tests).
type Collector struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	transport  *prometheus.CounterVec
	appErrors  *prometheus.CounterVec
	layouts    *prometheus.HistogramVec
	renders    *prometheus.HistogramVec
	cacheOps   *prometheus.CounterVec
	graphNodes prometheus.Gauge
	graphLinks prometheus.Gauge
	dangling   prometheus.Gauge
}

var (
	_ HTTPHooks   = (*Collector)(nil)
	_ RenderHooks = (*Collector)(nil)
	_ CacheHooks  = (*Collector)(nil)
)

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API requests by method, path and HTTP status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API round-trip time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		transport: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_transport_errors_total",
			Help:      "Requests that failed before a usable response arrived.",
		}, []string{"method", "path"}),
		appErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_application_errors_total",
			Help:      "Responses whose envelope reported ret != 0.",
		}, []string{"method", "path", "ret"}),
		layouts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Force layout computation time by engine.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine", "result"}),
		renders: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Diagram rendering time by output format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format", "result"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Render cache operations by key type and outcome.",
		}, []string{"key_type", "op"}),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Entities in the current graph.",
		}),
		graphLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_links",
			Help:      "Relationships in the current graph.",
		}),
		dangling: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_dangling_links",
			Help:      "Relationships whose source or target is missing.",
		}),
	}

	c.registry.MustRegister(
		c.requests, c.duration, c.transport, c.appErrors,
		c.layouts, c.renders, c.cacheOps,
		c.graphNodes, c.graphLinks, c.dangling,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveGraph updates the graph size gauges. It has the signature of a
// store subscriber.
func (c *Collector) ObserveGraph(g graph.Graph) {
	s := g.Stats()
	c.graphNodes.Set(float64(s.Nodes))
	c.graphLinks.Set(float64(s.Links))
	c.dangling.Set(float64(s.Dangling))
}

func (c *Collector) OnRequest(context.Context, string, string, string) {}

func (c *Collector) OnResponse(_ context.Context, method, _, path string, status int, d time.Duration) {
	route := Route(path)
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) OnError(_ context.Context, method, _, path string, _ error) {
	c.transport.WithLabelValues(method, Route(path)).Inc()
}

func (c *Collector) OnAppError(_ context.Context, method, path string, ret int) {
	c.appErrors.WithLabelValues(method, Route(path), strconv.Itoa(ret)).Inc()
}

func (c *Collector) OnLayout(_ context.Context, engine string, _ int, d time.Duration, err error) {
	c.layouts.WithLabelValues(engine, result(err)).Observe(d.Seconds())
}

func (c *Collector) OnRender(_ context.Context, format string, _ int, d time.Duration, err error) {
	c.renders.WithLabelValues(format, result(err)).Observe(d.Seconds())
}

func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (c *Collector) OnCacheSet(_ context.Context, keyType string, _ int) {
	c.cacheOps.WithLabelValues(keyType, "set").Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// idCollections are the path segments whose next segment is a resource id.
var idCollections = map[string]bool{"entities": true, "relationships": true}

// Route returns the route template for a backend path: the segment after
// "entities" or "relationships" becomes {id}. Metric labels use it so their
// cardinality is bounded by the number of routes, not the number of ids.
func Route(path string) string {
	path, _, _ = strings.Cut(path, "?")
	segs := strings.Split(path, "/")
	for i := 1; i < len(segs); i++ {
		if idCollections[segs[i-1]] && segs[i] != "" {
			segs[i] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}
