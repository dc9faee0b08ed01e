package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache tiers used as metric labels
const (
	TierClient = "client"
	TierServer = "server"
)

// Collector holds all Prometheus metrics for the cache layer.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	CacheEvictions   *prometheus.CounterVec
	CacheExpirations *prometheus.CounterVec
	CacheEntries     *prometheus.GaugeVec
	StaleServed      prometheus.Counter
	StoreErrors      *prometheus.CounterVec

	// Backend metrics
	BackendFetches  *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}, []string{"tier"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"tier"}),
		CacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries removed to respect the capacity bound",
		}, []string{"tier"}),
		CacheExpirations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_expirations_total",
			Help:      "Entries removed after their TTL elapsed",
		}, []string{"tier"}),
		CacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Current number of cache entries",
		}, []string{"tier"}),
		StaleServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_stale_served_total",
			Help:      "Responses served from a cached entry after a backend failure",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Failed key-value store commands",
		}, []string{"operation"}),
		BackendFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_fetches_total",
			Help:      "Reads sent to the data backend",
		}, []string{"operation", "status"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_fetch_duration_seconds",
			Help:      "Data backend read duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheHits,
		c.CacheMisses,
		c.CacheEvictions,
		c.CacheExpirations,
		c.CacheEntries,
		c.StaleServed,
		c.StoreErrors,
		c.BackendFetches,
		c.BackendDuration,
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) RecordHit(tier string) {
	if c != nil {
		c.CacheHits.WithLabelValues(tier).Inc()
	}
}

func (c *Collector) RecordMiss(tier string) {
	if c != nil {
		c.CacheMisses.WithLabelValues(tier).Inc()
	}
}

func (c *Collector) RecordEviction(tier string) {
	if c != nil {
		c.CacheEvictions.WithLabelValues(tier).Inc()
	}
}

func (c *Collector) RecordExpirations(tier string, n int) {
	if c != nil && n > 0 {
		c.CacheExpirations.WithLabelValues(tier).Add(float64(n))
	}
}

func (c *Collector) SetEntries(tier string, n int) {
	if c != nil {
		c.CacheEntries.WithLabelValues(tier).Set(float64(n))
	}
}

func (c *Collector) RecordStale() {
	if c != nil {
		c.StaleServed.Inc()
	}
}

func (c *Collector) RecordStoreError(operation string) {
	if c != nil {
		c.StoreErrors.WithLabelValues(operation).Inc()
	}
}

// RecordBackendFetch records the outcome and latency of one backend read
func (c *Collector) RecordBackendFetch(operation string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.BackendFetches.WithLabelValues(operation, status).Inc()
	c.BackendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTP records one served request
func (c *Collector) RecordHTTP(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
