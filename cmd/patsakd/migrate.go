package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akshell/patsak/internal/txn"
	"github.com/akshell/patsak/internal/txn/migrations"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the catalog bootstrap SQL to the configured schema",
		Run:   cmdMigrate,
	}
}

func cmdMigrate(*cobra.Command, []string) {
	cfg := setup()
	ctx := context.Background()

	db, err := txn.Connect(ctx, cfg.DB.DSN(), cfg.DB.Schema, log)
	if err != nil {
		log.Fatalf("connecting to backend: %s", err)
	}
	defer db.Close(ctx)

	wu, err := db.Begin(ctx)
	if err != nil {
		log.Fatalf("opening work unit: %s", err)
	}

	if err := wu.ExecRaw(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", cfg.DB.Schema)); err != nil {
		log.Fatalf("creating schema: %s", err)
	}
	if err := wu.ExecRaw(ctx, migrations.Bootstrap); err != nil {
		log.Fatalf("applying bootstrap SQL: %s", err)
	}
	if err := wu.Commit(ctx); err != nil {
		log.Fatalf("committing migration: %s", err)
	}

	log.Infow("schema bootstrapped", "schema", cfg.DB.Schema)
}
