// Package store reads the externally-versioned SQLite snapshots produced by
// the offline ETL: the master registry, the precomputed link relation, and
// the sanction source relations. All databases are opened read-only and are
// safe for concurrent use across traversals.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStoreUnavailable is returned when a backing relation cannot be opened or
// queried. It is fatal to the whole traversal: no partial adjacency data is
// trustworthy.
var ErrStoreUnavailable = errors.New("store unavailable")

// openReadOnly opens a SQLite snapshot for shared read access.
//
// The snapshot is immutable between ETL refreshes, so the connection skips
// journal handling entirely (immutable=1) and allows many concurrent readers.
func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s: %v", ErrStoreUnavailable, path, err)
	}
	return db, nil
}

// queryErr wraps a query failure into the fatal store taxonomy. The cause
// stays in the chain so callers can tell a cancelled request context apart
// from a genuinely unreachable store.
func queryErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// placeholders builds a "?,?,?" list for batched IN queries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// scanAll is a small helper that iterates rows and forwards scan errors.
func scanAll(rows *sql.Rows, op string, scan func() error) error {
	defer rows.Close()
	for rows.Next() {
		if err := scan(); err != nil {
			return queryErr(op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return queryErr(op, err)
	}
	return nil
}

// ctxQuery runs a context-bound query against a snapshot database.
func ctxQuery(ctx context.Context, db *sql.DB, op, q string, args ...any) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, queryErr(op, err)
	}
	return rows, nil
}
