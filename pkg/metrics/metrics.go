package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordTraversal records one completed layer-expansion traversal.
func (r *Registry) RecordTraversal(status string, duration time.Duration, layers, nodes, edges int) {
	r.TraversalsTotal.WithLabelValues(status).Inc()
	r.TraversalDuration.Observe(duration.Seconds())
	r.TraversalLayers.Observe(float64(layers))
	r.TraversalNodes.Observe(float64(nodes))
	r.TraversalEdges.Observe(float64(edges))
}

// RecordStoreQuery records one snapshot-store query.
func (r *Registry) RecordStoreQuery(storeName, status string, duration time.Duration) {
	r.StoreQueriesTotal.WithLabelValues(storeName, status).Inc()
	r.StoreQueryDuration.WithLabelValues(storeName).Observe(duration.Seconds())
}

// RecordEnrichmentBatch records one batched enrichment lookup.
func (r *Registry) RecordEnrichmentBatch(kind string) {
	r.EnrichmentBatchesTotal.WithLabelValues(kind).Inc()
}

// RecordSourceError records a partial-enrichment warning for one source.
func (r *Registry) RecordSourceError(source string) {
	r.EnrichmentSourceErrors.WithLabelValues(source).Inc()
}

// RecordFlagsAttached records sanction flags attached to nodes.
func (r *Registry) RecordFlagsAttached(source string, n int) {
	r.EnrichmentFlagsAttached.WithLabelValues(source).Add(float64(n))
}
