package store

import (
	"context"
	"database/sql"

	"github.com/tssouza/cnpjgraph/pkg/identity"
)

// Link is one adjacency record: the relation label plus the neighbor's
// canonical key. Forward reports whether the queried key was the row's first
// endpoint; edges keep the source's (id1, id2) ordering when stored.
type Link struct {
	Label    string
	Neighbor identity.Key
	Forward  bool
}

// HeadquartersResolver maps a company key to its headquarters establishment.
// Satisfied by RegistryStore.
type HeadquartersResolver interface {
	Headquarters(ctx context.Context, key identity.Key) (identity.Key, error)
}

// LinkStore reads the precomputed edge relation (ligacao: id1, id2,
// descricao), keyed by either endpoint. Row order is the relation's insertion
// order, which fixes the deterministic truncation order downstream.
type LinkStore struct {
	db     *sql.DB
	hq     HeadquartersResolver
	bridge bool
}

// OpenLinks opens the link snapshot read-only.
func OpenLinks(path string) (*LinkStore, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	return &LinkStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *LinkStore) Close() error {
	return s.db.Close()
}

// EnableBranchBridging makes branch establishments share their headquarters'
// partner list: when reading a branch's adjacency, the headquarters' links
// are returned as if directly adjacent to the branch.
func (s *LinkStore) EnableBranchBridging(hq HeadquartersResolver) {
	s.hq = hq
	s.bridge = hq != nil
}

// Neighbors returns the ordered (relationLabel, neighborKey) sequence for one
// canonical key. Rows with an endpoint that cannot be parsed back into a key
// are skipped. Self-loop rows are returned as-is; the expansion engine drops
// them.
func (s *LinkStore) Neighbors(ctx context.Context, key identity.Key) ([]Link, error) {
	links, err := s.neighborsOf(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.bridge && key.Kind == identity.KindCompany {
		hq, err := s.hq.Headquarters(ctx, key)
		if err != nil {
			return nil, err
		}
		if !hq.IsZero() && hq != key {
			bridged, err := s.neighborsOf(ctx, hq)
			if err != nil {
				return nil, err
			}
			for _, l := range bridged {
				if l.Neighbor == key {
					continue
				}
				links = append(links, l)
			}
		}
	}
	return links, nil
}

// neighborsOf reads the direct rows for one key, in relation order.
func (s *LinkStore) neighborsOf(ctx context.Context, key identity.Key) ([]Link, error) {
	const op = "links.Neighbors"
	id := key.String()
	rows, err := ctxQuery(ctx, s.db, op,
		`SELECT id1, id2, descricao FROM ligacao WHERE id1 = ? OR id2 = ? ORDER BY rowid`,
		id, id)
	if err != nil {
		return nil, err
	}

	var links []Link
	err = scanAll(rows, op, func() error {
		var id1, id2, label string
		if err := rows.Scan(&id1, &id2, &label); err != nil {
			return err
		}
		other, forward := id2, true
		if id1 != id {
			other, forward = id1, false
		}
		neighbor, err := identity.ParseStored(other)
		if err != nil {
			// Malformed endpoint in the snapshot; skip the row.
			return nil
		}
		links = append(links, Link{Label: label, Neighbor: neighbor, Forward: forward})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}
