// Package expand implements the layer expansion engine: bounded breadth-first
// traversal of the precomputed link relation from a set of seed keys, with
// cross-layer dedup, per-layer record and wall-clock budgets, and per-node
// attribute and watch-list enrichment merged into one graph result.
package expand

import (
	"context"
	"sync"
	"time"

	"github.com/tssouza/cnpjgraph/pkg/enrich"
	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

// AdjacencyReader returns the ordered neighbor links for one canonical key.
// Satisfied by store.LinkStore.
type AdjacencyReader interface {
	Neighbors(ctx context.Context, key identity.Key) ([]store.Link, error)
}

// AttributeSource batch-reads descriptive attributes for canonical keys.
// Satisfied by enrich.AttributeFetcher.
type AttributeSource interface {
	Fetch(ctx context.Context, keys []identity.Key) (map[identity.Key]enrich.Attributes, error)
}

// FlagSource batch-reads watch-list flags for canonical keys.
// Satisfied by enrich.Pipeline.
type FlagSource interface {
	Enrich(ctx context.Context, keys []identity.Key) (map[identity.Key]enrich.Flags, []enrich.SourceWarning)
}

// Budget is the traversal envelope, fixed at process start. Callers may
// request fewer layers than MaxLayers, never more.
type Budget struct {
	MaxLayers          int
	MaxRecordsPerLayer int
	Deadline           time.Duration
	Workers            int
}

// Node is one accumulated graph node. Layer records the BFS depth at which
// the key was first discovered and is never revised downward. Attributes and
// flags are merged idempotently when the key is reached again.
type Node struct {
	Key        identity.Key
	Label      string
	Layer      int
	Attributes map[string]string
	Flags      map[string]string
}

// Edge is one accumulated graph edge, stored with the (from, to) ordering of
// the source relation. Duplicate edges (same unordered pair and label)
// collapse to one. Both endpoints are always present in the node set.
type Edge struct {
	From  identity.Key
	To    identity.Key
	Label string
}

// edgeIdentity is the dedup key for an edge: unordered endpoint pair + label.
type edgeIdentity struct {
	lo, hi string
	label  string
}

func edgeKeyOf(a, b identity.Key, label string) edgeIdentity {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return edgeIdentity{lo: as, hi: bs, label: label}
}

// Result is the accumulated traversal outcome. Nodes are in discovery order
// (layer-monotonic); edges in insertion order. Truncated and TimedOut flag
// the non-fatal budget hits; Warnings carry invalid-seed and
// partial-enrichment notices.
type Result struct {
	Nodes     []*Node
	Edges     []Edge
	Truncated bool
	TimedOut  bool
	Warnings  []string
}

// Guard serializes writes to shared traversal state. The implementation is
// chosen by configuration: a real mutex, or a no-op when expansion is
// configured to run single-threaded.
type Guard interface {
	Lock()
	Unlock()
}

type noopGuard struct{}

func (noopGuard) Lock()   {}
func (noopGuard) Unlock() {}

// NewGuard selects the concurrency guard by configuration. Mode "none"
// returns a no-op guard; anything else a real mutex.
func NewGuard(mode string) Guard {
	if mode == "none" {
		return noopGuard{}
	}
	return &sync.Mutex{}
}
