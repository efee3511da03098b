package catalog

import "github.com/rs/xid"

// newSavepointName generates a unique, backend-legal savepoint identifier
// for one ExecSafely call. xid IDs are lowercase alphanumeric and sort
// roughly by creation time, which is convenient when a savepoint name
// shows up in a log line or an EXPLAIN next to its siblings.
func newSavepointName() string {
	return "sp_" + xid.New().String()
}
