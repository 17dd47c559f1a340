package enrich

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tssouza/cnpjgraph/pkg/identity"
	"github.com/tssouza/cnpjgraph/pkg/logging"
	"github.com/tssouza/cnpjgraph/pkg/store"
)

// Flags maps sourceName to the compact flag payload for one entity. A source
// with no matching record contributes no entry: absence, not an empty string,
// is the clean signal.
type Flags map[string]string

// SourceWarning records a failed sanction source. It is non-fatal: the
// source's flags are omitted for the batch and the traversal continues.
type SourceWarning struct {
	Source string
	Err    error
}

// Message renders the warning for the response document.
func (w SourceWarning) Message() string {
	return fmt.Sprintf("partial enrichment: source %s unavailable: %v", w.Source, w.Err)
}

// Pipeline queries the N independently-versioned sanction sources. Sources
// are queried concurrently and independently: one failing source never blocks
// the others.
type Pipeline struct {
	store         *store.SanctionStore
	sources       []store.SourceSpec
	maxPayloadLen int
	logger        logging.Logger
}

// NewPipeline builds the enrichment pipeline over the configured sources.
// maxPayloadLen bounds the per-source flag payload; zero means unbounded.
func NewPipeline(s *store.SanctionStore, sources []store.SourceSpec, maxPayloadLen int, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{store: s, sources: sources, maxPayloadLen: maxPayloadLen, logger: logger}
}

// Enrich looks every key up in every source, one batched query per source.
// The returned map has an entry per key that matched at least one source;
// warnings carry the sources that failed for this batch.
func (p *Pipeline) Enrich(ctx context.Context, keys []identity.Key) (map[identity.Key]Flags, []SourceWarning) {
	flags := make(map[identity.Key]Flags)
	if p.store == nil || len(keys) == 0 || len(p.sources) == 0 {
		return flags, nil
	}

	// Both 11-digit and 14-digit identifiers are queried against every
	// source; lengths never collide, so one reverse index serves all sources.
	byID := make(map[string]identity.Key, len(keys))
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if key.ID == "" {
			continue
		}
		if _, dup := byID[key.ID]; dup {
			continue
		}
		byID[key.ID] = key
		ids = append(ids, key.ID)
	}
	if len(ids) == 0 {
		return flags, nil
	}

	results := make([][]store.SanctionRecord, len(p.sources))
	var (
		mu       sync.Mutex
		warnings []SourceWarning
	)

	var g errgroup.Group
	for i, src := range p.sources {
		i, src := i, src
		g.Go(func() error {
			records, err := p.store.Lookup(ctx, src, ids)
			if err != nil {
				p.logger.Warn("sanction source query failed",
					logging.Source(src.Name), logging.Error(err))
				mu.Lock()
				warnings = append(warnings, SourceWarning{Source: src.Name, Err: err})
				mu.Unlock()
				return nil
			}
			results[i] = records
			return nil
		})
	}
	// Source errors become warnings, never group errors.
	_ = g.Wait()

	for i, src := range p.sources {
		for key, payload := range p.assemble(results[i], byID) {
			if flags[key] == nil {
				flags[key] = make(Flags)
			}
			flags[key][src.Name] = payload
		}
	}
	return flags, warnings
}

// assemble concatenates each key's matching records into one payload,
// truncated to the configured maximum length.
func (p *Pipeline) assemble(records []store.SanctionRecord, byID map[string]identity.Key) map[identity.Key]string {
	if len(records) == 0 {
		return nil
	}
	parts := make(map[identity.Key][]string)
	for _, r := range records {
		key, ok := byID[r.ID]
		if !ok {
			continue
		}
		parts[key] = append(parts[key], formatRecord(r))
	}
	out := make(map[identity.Key]string, len(parts))
	for key, p2 := range parts {
		out[key] = p.truncate(strings.Join(p2, "; "))
	}
	return out
}

func formatRecord(r store.SanctionRecord) string {
	span := r.StartDate
	if r.EndDate != "" {
		span += " a " + r.EndDate
	}
	if span != "" {
		return fmt.Sprintf("%s (%s) %s", r.Description, r.IssuingBody, span)
	}
	return fmt.Sprintf("%s (%s)", r.Description, r.IssuingBody)
}

func (p *Pipeline) truncate(payload string) string {
	if p.maxPayloadLen <= 0 {
		return payload
	}
	runes := []rune(payload)
	if len(runes) <= p.maxPayloadLen {
		return payload
	}
	return string(runes[:p.maxPayloadLen])
}
