package txn

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/akshell/patsak/internal/catalog"
)

// pgxExecutor implements catalog.Executor against one open pgx transaction,
// the real counterpart to catalog_test.go's fakeExecutor.
type pgxExecutor struct {
	tx pgx.Tx
}

func (e *pgxExecutor) Query(ctx context.Context, sql string, args ...interface{}) (catalog.Rows, error) {
	rows, err := e.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	return &pgxRows{rows: rows}, nil
}

func (e *pgxExecutor) Exec(ctx context.Context, sql string, args ...interface{}) error {
	_, err := e.tx.Exec(ctx, sql, args...)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (e *pgxExecutor) ExecAffecting(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	tag, err := e.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

// ExecSafely wraps sql in an explicitly named SAVEPOINT (savepoint is
// generated by catalog.newSavepointName, unique per call) so a failure
// rolls back only that statement, never the enclosing work unit.
func (e *pgxExecutor) ExecSafely(ctx context.Context, savepoint, sql string, args ...interface{}) error {
	ident := quoteSavepoint(savepoint)
	if _, err := e.tx.Exec(ctx, "SAVEPOINT "+ident); err != nil {
		return classify(err)
	}
	if _, err := e.tx.Exec(ctx, sql, args...); err != nil {
		classified := classify(err)
		if _, rbErr := e.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+ident); rbErr != nil {
			return classify(rbErr)
		}
		if _, relErr := e.tx.Exec(ctx, "RELEASE SAVEPOINT "+ident); relErr != nil {
			return classify(relErr)
		}
		return classified
	}
	if _, err := e.tx.Exec(ctx, "RELEASE SAVEPOINT "+ident); err != nil {
		return classify(err)
	}
	return nil
}

func quoteSavepoint(name string) string {
	return fmt.Sprintf("%q", name)
}
