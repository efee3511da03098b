package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akshell/patsak/internal/config"
	"github.com/akshell/patsak/internal/logging"
)

// These are set via -ldflags at build time.
var (
	version string
	commit  string
	date    string
)

var (
	log   *zap.SugaredLogger
	conf  *config.Config
	cpath string
)

// Cmd is the CLI entry point.
func Cmd() {
	log = logging.NewSugared(false)

	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:   "patsakd",
		Short: BuildDetails(),
	}

	rootCmd.PersistentFlags().StringVar(&cpath,
		"config", "./config/patsak.yaml", "path to the config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%s", err)
	}
}

// setup reads the config file once, caching the result across subcommands
// in the same process invocation.
func setup() *config.Config {
	if conf != nil {
		return conf
	}

	abs, err := filepath.Abs(cpath)
	if err != nil {
		log.Fatal(err)
	}

	c, err := config.Read(abs)
	if err != nil {
		log.Fatalf("failed to read config %q: %s", abs, err)
	}
	conf = c

	log = logging.NewSugared(conf.ShouldUseJSONLogs())
	return conf
}

// BuildDetails renders the ldflags-injected version/commit/date into a
// one-line banner for the root command's short description.
func BuildDetails() string {
	v, c, d := version, commit, date
	if v == "" {
		v = "not-set"
	}
	if c == "" {
		c = "not-set"
	}
	if d == "" {
		d = "not-set"
	}
	return fmt.Sprintf("patsakd %s (commit %s, built %s)", v, c, d)
}
