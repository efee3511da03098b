package txn

import "github.com/jackc/pgx/v5"

// pgxRows adapts pgx.Rows to catalog.Rows, the narrow shape the catalog
// package scans against.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool                      { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...interface{}) error  { return r.rows.Scan(dest...) }
func (r *pgxRows) Err() error                      { return r.rows.Err() }

func (r *pgxRows) Close() error {
	r.rows.Close()
	return nil
}
