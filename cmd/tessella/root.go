// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessella-dev/tessella/internal/config"
	"github.com/tessella-dev/tessella/internal/store"
	_ "github.com/tessella-dev/tessella/internal/store/filestore"
	_ "github.com/tessella-dev/tessella/internal/store/memory"
	_ "github.com/tessella-dev/tessella/internal/store/sqlite"
)

// NewRootCmd creates the root tessella command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tessella",
		Short:         "Tessella — versioned multi-tenant triple store",
		Long:          "Tessella stores subject-predicate-object facts per tenant with full version history, temporal queries, and snapshots.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().StringP("tenant", "t", "default", "tenant id to operate on")
	root.PersistentFlags().String("store", "", "storage backend override (memory, file, sqlite)")
	root.PersistentFlags().String("db", "", "connection string override (file path)")

	root.AddCommand(
		newTripleCmd(),
		newQueryCmd(),
		newHistoryCmd(),
		newSnapshotCmd(),
		newGraphCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)

	return root
}

// openStores loads configuration, applies CLI overrides, and opens the
// selected backend. The caller owns the returned stores; closing either one
// shuts down the shared backend.
func openStores(cmd *cobra.Command) (store.TripleStore, store.VersionStore, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.StoreOptions()
	if st, _ := cmd.Flags().GetString("store"); st != "" {
		opts.StoreType = store.StoreType(st)
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		opts.ConnectionString = db
	}
	opts.Logger = newLogger(cfg.Logging)

	return store.New(opts)
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	hopts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}

func tenantOf(cmd *cobra.Command) string {
	tenant, _ := cmd.Flags().GetString("tenant")
	return tenant
}
