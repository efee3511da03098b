package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/akshell/patsak/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"serv"},
		Short:   "Run the patsakd stream-socket server",
		Run:     cmdServe,
	}
}

func cmdServe(*cobra.Command, []string) {
	cfg := setup()
	s := server.New(cfg, server.DiagnosticHandler{}, log)
	if err := s.ListenAndServe(context.Background()); err != nil {
		log.Fatalf("server exited: %s", err)
	}
}
