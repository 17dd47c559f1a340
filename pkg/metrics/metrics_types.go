package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Traversal Metrics
	TraversalsTotal     *prometheus.CounterVec
	TraversalDuration   prometheus.Histogram
	TraversalLayers     prometheus.Histogram
	TraversalNodes      prometheus.Histogram
	TraversalEdges      prometheus.Histogram
	TraversalTruncated  prometheus.Counter
	TraversalTimedOut   prometheus.Counter
	InvalidSeedsTotal   prometheus.Counter

	// Store Metrics
	StoreQueriesTotal  *prometheus.CounterVec
	StoreQueryDuration *prometheus.HistogramVec

	// Enrichment Metrics
	EnrichmentBatchesTotal  *prometheus.CounterVec
	EnrichmentSourceErrors  *prometheus.CounterVec
	EnrichmentFlagsAttached *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initTraversalMetrics()
	r.initStoreMetrics()
	r.initEnrichmentMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
