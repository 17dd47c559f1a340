package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnpjgraph_store_queries_total",
			Help: "Total number of snapshot-store queries",
		},
		[]string{"store", "status"},
	)

	r.StoreQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cnpjgraph_store_query_duration_seconds",
			Help:    "Snapshot-store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"store"},
	)
}

func (r *Registry) initEnrichmentMetrics() {
	r.EnrichmentBatchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnpjgraph_enrichment_batches_total",
			Help: "Total number of batched enrichment lookups",
		},
		[]string{"kind"}, // attributes, sanctions
	)

	r.EnrichmentSourceErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnpjgraph_enrichment_source_errors_total",
			Help: "Sanction source failures (partial enrichment warnings)",
		},
		[]string{"source"},
	)

	r.EnrichmentFlagsAttached = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnpjgraph_enrichment_flags_attached_total",
			Help: "Sanction flags attached to nodes, by source",
		},
		[]string{"source"},
	)
}
