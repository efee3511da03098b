//go:build integration

package txn_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/orlangure/gnomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akshell/patsak/internal/qltype"
	"github.com/akshell/patsak/internal/txn"
	"github.com/akshell/patsak/internal/txn/migrations"
)

// startPostgres brings up a throwaway Postgres container the same way the
// teacher's test suite uses gnomock for ephemeral backends, and applies the
// bootstrap stored helpers against a fresh "app" schema.
func startPostgres(t *testing.T) (dsn string) {
	t.Helper()
	container, err := gnomock.StartCustom(
		"postgres:15-alpine",
		gnomock.NamedPorts{"default": gnomock.TCP(5432)},
		gnomock.WithEnv("POSTGRES_PASSWORD=patsak"),
		gnomock.WithEnv("POSTGRES_DB=patsak"),
		gnomock.WithHealthCheckFunction(func(ctx context.Context, c *gnomock.Container) error {
			dsn := fmt.Sprintf("postgres://postgres:patsak@%s:%d/patsak?sslmode=disable", c.Host, c.DefaultPort())
			conn, err := pgx.Connect(ctx, dsn)
			if err != nil {
				return err
			}
			defer conn.Close(ctx)
			return conn.Ping(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gnomock.Stop(container) })

	port := container.DefaultPort()
	baseDSN := fmt.Sprintf("postgres://postgres:patsak@%s:%d/patsak?sslmode=disable", container.Host, port)

	db, err := txn.Connect(context.Background(), baseDSN, "app", zap.NewNop().Sugar())
	require.NoError(t, err)
	wu, err := db.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, wu.ExecRaw(context.Background(), "CREATE SCHEMA IF NOT EXISTS app"))
	require.NoError(t, wu.ExecRaw(context.Background(), migrations.Bootstrap))
	require.NoError(t, wu.Commit(context.Background()))
	require.NoError(t, db.Close(context.Background()))

	return baseDSN
}

func TestCreateRelVarIsVisibleAfterCommit(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()
	log := zap.NewNop().Sugar()

	db1, err := txn.Connect(ctx, dsn, "app", log)
	require.NoError(t, err)
	defer db1.Close(ctx)

	wu1, err := db1.Begin(ctx)
	require.NoError(t, err)
	cat1, err := wu1.Catalog(ctx)
	require.NoError(t, err)
	require.NoError(t, cat1.CreateRelVar(ctx, "Widget",
		[]qltype.DefAttr{{Attr: qltype.Attr{Name: "id", Type: qltype.Integer}}}, nil))
	require.NoError(t, wu1.Commit(ctx))

	db2, err := txn.Connect(ctx, dsn, "app", log)
	require.NoError(t, err)
	defer db2.Close(ctx)

	wu2, err := db2.Begin(ctx)
	require.NoError(t, err)
	cat2, err := wu2.Catalog(ctx)
	require.NoError(t, err)
	_, ok := cat2.Meta().Get("Widget")
	require.True(t, ok)
	require.NoError(t, wu2.Rollback(ctx))
}

func TestRollbackDiscardsUncommittedRelVar(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()
	log := zap.NewNop().Sugar()

	db, err := txn.Connect(ctx, dsn, "app", log)
	require.NoError(t, err)
	defer db.Close(ctx)

	wu1, err := db.Begin(ctx)
	require.NoError(t, err)
	cat1, err := wu1.Catalog(ctx)
	require.NoError(t, err)
	require.NoError(t, cat1.CreateRelVar(ctx, "Ghost",
		[]qltype.DefAttr{{Attr: qltype.Attr{Name: "id", Type: qltype.Integer}}}, nil))
	require.NoError(t, wu1.Rollback(ctx))

	wu2, err := db.Begin(ctx)
	require.NoError(t, err)
	cat2, err := wu2.Catalog(ctx)
	require.NoError(t, err)
	_, ok := cat2.Meta().Get("Ghost")
	require.False(t, ok)
	require.NoError(t, wu2.Rollback(ctx))
}
