package txn

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akshell/patsak/internal/qlerr"
)

// sqlstateNameTooLong is Postgres's "name too long" class, raised when an
// identifier (here, an auto-generated unique-index name) exceeds the
// backend's own limit during drop_all_constrs's constraint rebuild.
const sqlstateNameTooLong = "42622"

// classify wraps a backend error in the qlerr.Kind it maps to, per the
// backend-family table: integrity/check/data-exception/user-raise errors
// become CONSTRAINT, an over-long generated identifier becomes QUOTA, and
// anything else becomes DB. Non-Postgres errors (connection loss, context
// cancellation) also become DB; callers needing a different kind for a
// specific path (e.g. DropAttrs reclassifying DB into DEPENDENCY)
// do so themselves from the CONSTRAINT/DB kind this returns.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return qlerr.Wrap(qlerr.DB, err, "backend error")
	}

	var kind qlerr.Kind
	switch {
	case pgErr.Code == sqlstateNameTooLong:
		kind = qlerr.Quota
	case strings.HasPrefix(pgErr.Code, "23"): // integrity_constraint_violation
		kind = qlerr.Constraint
	case strings.HasPrefix(pgErr.Code, "22"): // data_exception
		kind = qlerr.Constraint
	case pgErr.Code == "P0001": // raise_exception, user RAISE in stored code
		kind = qlerr.Constraint
	default:
		kind = qlerr.DB
	}
	return qlerr.Wrap(kind, err, "%s", strings.TrimSpace(pgErr.Message))
}
