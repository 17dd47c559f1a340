package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTraversalMetrics() {
	r.TraversalsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnpjgraph_traversals_total",
			Help: "Total number of layer-expansion traversals",
		},
		[]string{"status"}, // ok, partial, failed
	)

	r.TraversalDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cnpjgraph_traversal_duration_seconds",
			Help:    "Wall-clock duration of one traversal",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
	)

	r.TraversalLayers = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cnpjgraph_traversal_layers",
			Help:    "Number of layers expanded per traversal",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10},
		},
	)

	r.TraversalNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cnpjgraph_traversal_nodes",
			Help:    "Number of distinct nodes accumulated per traversal",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	r.TraversalEdges = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cnpjgraph_traversal_edges",
			Help:    "Number of distinct edges accumulated per traversal",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	r.TraversalTruncated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cnpjgraph_traversal_truncated_total",
			Help: "Traversals that hit the per-layer record cap",
		},
	)

	r.TraversalTimedOut = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cnpjgraph_traversal_timed_out_total",
			Help: "Traversals that hit the wall-clock budget",
		},
	)

	r.InvalidSeedsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cnpjgraph_invalid_seeds_total",
			Help: "Seed tokens rejected by the identifier normalizer",
		},
	)
}
