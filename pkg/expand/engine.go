package expand

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/logging"
	"github.com/tssouza/cnpjgraph/pkg/metrics"
	"github.com/tssouza/cnpjgraph/pkg/parallel"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

// Engine drives one bounded BFS traversal per request. It holds no state
// across requests: every Expand call starts from scratch against the shared
// read-only stores.
type Engine struct {
	links   AdjacencyReader
	attrs   AttributeSource
	flags   FlagSource
	budget  Budget
	guard   Guard
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = reg }
}

// WithGuard sets the concurrency guard used for shared traversal state.
func WithGuard(g Guard) Option {
	return func(e *Engine) { e.guard = g }
}

// NewEngine builds a layer expansion engine over the given collaborators.
// attrs and flags may be nil (nodes then carry only key-derived labels).
func NewEngine(links AdjacencyReader, attrs AttributeSource, flags FlagSource, budget Budget, opts ...Option) *Engine {
	e := &Engine{
		links:  links,
		attrs:  attrs,
		flags:  flags,
		budget: budget,
		guard:  NewGuard("mutex"),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// traversal is the per-request accumulated state. All writes go through the
// single merge goroutine; workers only fill their own result slots.
type traversal struct {
	visited  map[identity.Key]*Node
	nodes    []*Node
	edges    []Edge
	edgeSeen map[edgeIdentity]struct{}
	warned   map[string]struct{}
	result   *Result
}

// Expand runs the traversal: seeds become layer 0, then up to layers rounds
// of frontier expansion under the configured budget. A store failure aborts
// the whole traversal; budget hits return a flagged partial result.
func (e *Engine) Expand(ctx context.Context, seeds []identity.Key, layers int) (*Result, error) {
	start := time.Now()

	layers = e.clampLayers(layers)
	var deadline time.Time
	if e.budget.Deadline > 0 {
		deadline = start.Add(e.budget.Deadline)
	}

	t := &traversal{
		visited:  make(map[identity.Key]*Node),
		edgeSeen: make(map[edgeIdentity]struct{}),
		warned:   make(map[string]struct{}),
		result:   &Result{},
	}

	// Init: seeds are layer 0.
	frontier := make([]identity.Key, 0, len(seeds))
	for _, seed := range seeds {
		if _, dup := t.visited[seed]; dup {
			continue
		}
		t.addNode(seed, 0)
		frontier = append(frontier, seed)
	}

	layer := 0
	err := e.enrichRound(ctx, t, frontier)
	for err == nil && layer < layers && len(frontier) > 0 {
		// The wall-clock budget is enforced here only, never through the
		// query context: an in-flight batch always completes so no query
		// result is wasted.
		if e.expired(ctx, deadline) {
			t.result.TimedOut = true
			break
		}

		var discovered [][]store.Link
		if discovered, err = e.expandLayer(ctx, frontier); err != nil {
			break
		}

		frontier = e.mergeLayer(t, frontier, discovered, layer+1)
		layer++

		if err = e.enrichRound(ctx, t, frontier); err != nil {
			break
		}

		e.logger.Debug("layer expanded",
			logging.Layer(layer),
			logging.Count(len(frontier)),
			logging.Int("total_nodes", len(t.nodes)))
	}
	if err != nil {
		// A cancelled or expired request context surfacing from a store
		// mid-batch is a timeout, not a store failure: the accumulated
		// partial result is still returned.
		if !isCancellation(err) {
			e.logger.Error("traversal aborted",
				logging.Operation("expand"),
				logging.Layer(layer),
				logging.Error(err))
			e.recordTraversal("failed", start, layer, t)
			return nil, err
		}
		t.result.TimedOut = true
	}

	t.result.Nodes = t.nodes
	t.result.Edges = t.edges

	status := "ok"
	if t.result.Truncated || t.result.TimedOut || len(t.result.Warnings) > 0 {
		status = "partial"
	}
	e.recordTraversal(status, start, layer, t)
	return t.result, nil
}

func (e *Engine) clampLayers(layers int) int {
	if layers < 0 {
		return 0
	}
	if e.budget.MaxLayers > 0 && layers > e.budget.MaxLayers {
		return e.budget.MaxLayers
	}
	return layers
}

// expired reports whether the budget is spent and no further layer may start.
func (e *Engine) expired(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && !time.Now().Before(deadline)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// expandLayer fans the adjacency lookups for one frontier out over the worker
// pool. Result slots keep the frontier's order so truncation stays
// deterministic regardless of worker scheduling. Any adjacency failure is
// fatal: no partial adjacency data is trustworthy.
func (e *Engine) expandLayer(ctx context.Context, frontier []identity.Key) ([][]store.Link, error) {
	results := make([][]store.Link, len(frontier))

	workers := e.budget.Workers
	if _, lockless := e.guard.(noopGuard); lockless {
		// Without a real lock the shared failure slot cannot be written by
		// concurrent workers; expansion runs single-threaded.
		workers = 1
	}
	if workers <= 1 || len(frontier) == 1 {
		for i, key := range frontier {
			links, err := e.neighbors(ctx, key)
			if err != nil {
				return nil, err
			}
			results[i] = links
		}
		return results, nil
	}

	pool, err := parallel.NewWorkerPool(workers)
	if err != nil {
		return nil, err
	}

	var firstErr error
	for i, key := range frontier {
		i, key := i, key
		pool.Submit(func() {
			links, err := e.neighbors(ctx, key)
			if err != nil {
				e.guard.Lock()
				if firstErr == nil {
					firstErr = err
				}
				e.guard.Unlock()
				return
			}
			results[i] = links
		})
	}
	pool.Close()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// neighbors reads one key's adjacency, recording the query metric.
func (e *Engine) neighbors(ctx context.Context, key identity.Key) ([]store.Link, error) {
	start := time.Now()
	links, err := e.links.Neighbors(ctx, key)
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordStoreQuery("links", status, time.Since(start))
	}
	if err != nil {
		e.logger.Warn("adjacency read failed",
			logging.NodeKey(key.String()), logging.Error(err))
	}
	return links, err
}

// mergeLayer folds one layer's adjacency results into the accumulated sets,
// in frontier order. New keys become the next frontier at depth nextLayer,
// subject to the per-layer record cap: once the cap is hit, further new keys
// are dropped first-seen-first-kept and the result is marked truncated.
// Rediscovered keys only contribute edges; they are never re-added or
// re-enriched, and their layer never decreases.
func (e *Engine) mergeLayer(t *traversal, frontier []identity.Key, discovered [][]store.Link, nextLayer int) []identity.Key {
	var next []identity.Key
	limit := e.budget.MaxRecordsPerLayer

	for i, key := range frontier {
		for _, link := range discovered[i] {
			if link.Neighbor == key {
				// Self-loop, dropped.
				continue
			}

			_, known := t.visited[link.Neighbor]
			if !known {
				if limit > 0 && len(next) >= limit {
					t.result.Truncated = true
					continue
				}
				t.addNode(link.Neighbor, nextLayer)
				next = append(next, link.Neighbor)
			}

			from, to := key, link.Neighbor
			if !link.Forward {
				from, to = to, from
			}
			t.addEdge(from, to, link.Label)
		}
	}
	return next
}

// enrichRound batch-enriches exactly the keys newly added this round, so the
// total enrichment cost is bounded by the number of distinct nodes.
func (e *Engine) enrichRound(ctx context.Context, t *traversal, newKeys []identity.Key) error {
	if len(newKeys) == 0 {
		return nil
	}

	if e.attrs != nil {
		attrs, err := e.attrs.Fetch(ctx, newKeys)
		if err != nil {
			return fmt.Errorf("attribute enrichment: %w", err)
		}
		if e.metrics != nil {
			e.metrics.RecordEnrichmentBatch("attributes")
		}
		for key, a := range attrs {
			t.visited[key].merge(a.Label, a.Fields)
		}
	}

	if e.flags != nil {
		flags, warnings := e.flags.Enrich(ctx, newKeys)
		if e.metrics != nil {
			e.metrics.RecordEnrichmentBatch("sanctions")
		}
		for key, f := range flags {
			node := t.visited[key]
			for source, payload := range f {
				node.setFlag(source, payload)
				if e.metrics != nil {
					e.metrics.RecordFlagsAttached(source, 1)
				}
			}
		}
		for _, w := range warnings {
			if e.metrics != nil {
				e.metrics.RecordSourceError(w.Source)
			}
			// One warning per source per document, however many rounds fail.
			if _, dup := t.warned[w.Source]; dup {
				continue
			}
			t.warned[w.Source] = struct{}{}
			t.result.Warnings = append(t.result.Warnings, w.Message())
		}
	}
	return nil
}

func (e *Engine) recordTraversal(status string, start time.Time, layers int, t *traversal) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordTraversal(status, time.Since(start), layers, len(t.nodes), len(t.edges))
	if t.result.Truncated {
		e.metrics.TraversalTruncated.Inc()
	}
	if t.result.TimedOut {
		e.metrics.TraversalTimedOut.Inc()
	}
}

func (t *traversal) addNode(key identity.Key, layer int) {
	node := &Node{
		Key:   key,
		Label: key.Label(),
		Layer: layer,
	}
	t.visited[key] = node
	t.nodes = append(t.nodes, node)
}

func (t *traversal) addEdge(from, to identity.Key, label string) {
	id := edgeKeyOf(from, to, label)
	if _, dup := t.edgeSeen[id]; dup {
		return
	}
	t.edgeSeen[id] = struct{}{}
	t.edges = append(t.edges, Edge{From: from, To: to, Label: label})
}

// merge folds newly discovered attribute data into the node. Existing
// non-empty values win: the merge is idempotent and never replaces data with
// emptier data.
func (n *Node) merge(label string, fields map[string]string) {
	if label != "" {
		n.Label = label
	}
	if len(fields) == 0 {
		return
	}
	if n.Attributes == nil {
		n.Attributes = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if _, exists := n.Attributes[k]; !exists {
			n.Attributes[k] = v
		}
	}
}

func (n *Node) setFlag(source, payload string) {
	if payload == "" {
		return
	}
	if n.Flags == nil {
		n.Flags = make(map[string]string)
	}
	if _, exists := n.Flags[source]; !exists {
		n.Flags[source] = payload
	}
}
