package txn

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// getMetaState reads the schema's current meta-state version via the
// backend's get_meta_state stored helper.
func getMetaState(ctx context.Context, tx pgx.Tx, schema string) (int64, error) {
	var v int64
	if err := tx.QueryRow(ctx, "SELECT get_meta_state($1)", schema).Scan(&v); err != nil {
		return 0, classify(err)
	}
	return v, nil
}

// setMetaState bumps the schema's meta-state version via set_meta_state,
// called once before COMMIT whenever a work unit mutated the catalog.
func setMetaState(ctx context.Context, tx pgx.Tx, schema string, version int64) error {
	if _, err := tx.Exec(ctx, "SELECT set_meta_state($1, $2)", schema, version); err != nil {
		return classify(err)
	}
	return nil
}
