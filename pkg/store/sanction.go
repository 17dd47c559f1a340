package store

import (
	"context"
	"database/sql"
)

// SourceSpec identifies one sanction source relation inside the sanctions
// snapshot. Table and column names come from validated configuration, never
// from request input.
type SourceSpec struct {
	Name     string
	Table    string
	IDColumn string
}

// SanctionRecord is one watch-list row: read-only reference data owned by
// the sanctions snapshot.
type SanctionRecord struct {
	ID          string
	Description string
	IssuingBody string
	StartDate   string
	EndDate     string
}

// SanctionStore reads the independently-versioned sanction source relations.
type SanctionStore struct {
	db *sql.DB
}

// OpenSanctions opens the sanctions snapshot read-only.
func OpenSanctions(path string) (*SanctionStore, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	return &SanctionStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SanctionStore) Close() error {
	return s.db.Close()
}

// Lookup batch-reads all matching records from one source for the given
// identifier digits. Identifiers with no match simply contribute no rows;
// absence is the clean signal. Row order follows the relation.
func (s *SanctionStore) Lookup(ctx context.Context, src SourceSpec, ids []string) ([]SanctionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	op := "sanctions." + src.Name
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + src.IDColumn + `, sancao, orgao, data_inicio, data_final FROM ` +
		src.Table + ` WHERE ` + src.IDColumn + ` IN (` + placeholders(len(ids)) + `) ORDER BY rowid`
	rows, err := ctxQuery(ctx, s.db, op, q, args...)
	if err != nil {
		return nil, err
	}

	var records []SanctionRecord
	err = scanAll(rows, op, func() error {
		var r SanctionRecord
		if err := rows.Scan(&r.ID, &r.Description, &r.IssuingBody, &r.StartDate, &r.EndDate); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
