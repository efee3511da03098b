// Package catalog implements the in-memory schema mirror (Meta + RelVar)
// and the mutation API layered over it: create/drop RelVar, add/drop
// attributes, add/drop defaults, add/drop constraints, backed by the
// backend's stored introspection and DDL helpers.
package catalog

import "context"

// Rows is the minimal result-set shape the catalog needs from a backend
// query, matching the subset of database/sql.Rows it actually calls.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Executor is the backend contract the catalog is built against: one
// connection's ability to run a query, run a statement, and run a
// statement inside a savepoint that can fail without aborting the
// enclosing work unit. internal/txn provides the real pgx-backed
// implementation; tests provide a fake.
type Executor interface {
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) error
	// ExecAffecting runs sql and reports how many rows it touched, for
	// UPDATE/DELETE statements whose caller needs the affected count.
	ExecAffecting(ctx context.Context, sql string, args ...interface{}) (int64, error)
	// ExecSafely runs sql inside the named savepoint, releasing it on
	// success and rolling back to it (without aborting the caller's
	// transaction) on failure. Callers generate savepoint with
	// newSavepointName so concurrent nested calls never collide.
	ExecSafely(ctx context.Context, savepoint, sql string, args ...interface{}) error
}
