// Command lanesd runs a lanes queue manager as a standalone daemon.
//
// Subcommands:
//
//	serve    start the manager, its workers and the admin HTTP API
//	migrate  apply pending store migrations and exit
//	enqueue  submit a job to a running daemon
//
// Configuration is read from LANES_-prefixed environment variables; see
// package config.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "lanesd",
		Short:         "Priority job queue daemon",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		enqueueCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
