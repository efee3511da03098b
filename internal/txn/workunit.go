package txn

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/akshell/patsak/internal/catalog"
)

// WorkUnit is one backend transaction, opened by DB.Begin and closed by
// Commit or Rollback; its Catalog is built on first use. Exactly one is live
// per DB at a time.
type WorkUnit struct {
	db          *DB
	tx          pgx.Tx
	metaVersion int64
	metaChanged bool
	cat         *trackedCatalog
}

// Catalog returns the work unit's Catalog. The DB's Meta is reused across
// work units as long as its cached version still matches what get_meta_state
// reported when this work unit began; otherwise it's rebuilt from scratch,
// which also picks up catalog mutations committed by another process.
func (w *WorkUnit) Catalog(ctx context.Context) (catalog.Mutator, error) {
	if w.cat != nil {
		return w.cat, nil
	}
	ex := &pgxExecutor{tx: w.tx}
	if w.db.meta == nil || w.db.metaVersion != w.metaVersion {
		meta, err := catalog.Load(ctx, ex, w.db.schema)
		if err != nil {
			return nil, err
		}
		w.db.meta = meta
		w.db.metaVersion = w.metaVersion
	}
	w.cat = &trackedCatalog{Catalog: catalog.New(ex, w.db.schema, w.db.meta), wu: w}
	return w.cat, nil
}

// Commit bumps the schema's meta-state version (if this work unit mutated
// the catalog) and commits the backend transaction.
func (w *WorkUnit) Commit(ctx context.Context) error {
	if w.metaChanged {
		newVersion := w.metaVersion + 1
		if err := setMetaState(ctx, w.tx, w.db.schema, newVersion); err != nil {
			_ = w.tx.Rollback(ctx)
			return err
		}
		w.db.metaVersion = newVersion
	}
	if err := w.tx.Commit(ctx); err != nil {
		return classify(err)
	}
	w.db.log.Infow("work unit committed", "schema", w.db.schema, "meta_changed", w.metaChanged)
	return nil
}

// Rollback aborts the backend transaction and, if this work unit mutated
// the catalog, drops the DB's cached Meta so the next work unit rebuilds it
// from scratch rather than keep the in-memory changes the backend just
// undid.
func (w *WorkUnit) Rollback(ctx context.Context) error {
	err := w.tx.Rollback(ctx)
	if w.metaChanged {
		w.db.meta = nil
	}
	if err != nil {
		return classify(err)
	}
	w.db.log.Infow("work unit rolled back", "schema", w.db.schema)
	return nil
}

// DB owns one long-lived connection to the backend, which every WorkUnit
// begun on it uses, and the Meta cache shared across successive work units
// on that connection.
type DB struct {
	conn   *pgx.Conn
	schema string
	log    *zap.SugaredLogger

	meta        *catalog.Meta
	metaVersion int64
}

// Connect opens one long-lived backend connection, pointed at schema for
// its stored catalog-introspection helpers.
func Connect(ctx context.Context, dsn, schema string, log *zap.SugaredLogger) (*DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	cfg.RuntimeParams["search_path"] = schema
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{conn: conn, schema: schema, log: log}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.conn.Close(ctx)
}

// ExecRaw runs sql directly against the work unit's transaction, bypassing
// the catalog layer entirely. Used by cmd/patsakd's migrate subcommand and
// by tests to apply the bootstrap stored helpers before any RelVar exists.
func (w *WorkUnit) ExecRaw(ctx context.Context, sql string) error {
	if _, err := w.tx.Exec(ctx, sql); err != nil {
		return classify(err)
	}
	return nil
}

// Begin opens a new work unit, reading the schema's current meta-state
// version so the first catalog access in this work unit can tell whether
// the DB's cached Meta is still current.
func (db *DB) Begin(ctx context.Context) (*WorkUnit, error) {
	tx, err := db.conn.Begin(ctx)
	if err != nil {
		return nil, classify(err)
	}
	version, err := getMetaState(ctx, tx, db.schema)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return &WorkUnit{db: db, tx: tx, metaVersion: version}, nil
}
