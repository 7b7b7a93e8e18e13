// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage named snapshots of a tenant's graph state",
	}

	cmd.AddCommand(
		newSnapshotListCmd(),
		newSnapshotCreateCmd(),
		newSnapshotRestoreCmd(),
	)
	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			snaps, err := vs.Snapshots(cmd.Context(), tenantOf(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				_, _ = fmt.Fprintln(out, "no snapshots")
				return nil
			}

			names := make([]string, 0, len(snaps))
			for name := range snaps {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				info := snaps[name]
				scope := "all graphs"
				if len(info.GraphURIs) > 0 {
					scope = strings.Join(info.GraphURIs, ", ")
				}
				_, _ = fmt.Fprintf(out, "%-24s %s  %d triples  (%s)\n",
					info.Name, info.CreatedAt.Format(time.RFC3339), info.TripleCount, scope)
			}
			return nil
		},
	}
}

func newSnapshotCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Snapshot the tenant's current graph state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			graphs, _ := cmd.Flags().GetStringSlice("graph")
			if err := vs.CreateSnapshot(cmd.Context(), tenantOf(cmd), args[0], graphs); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created snapshot %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringSlice("graph", nil, "limit the snapshot to these graph URIs (repeatable)")
	return cmd
}

func newSnapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore the triples captured in a snapshot",
		Long:  "Each captured triple gets a new forward restoration version; triples created after the snapshot are left alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			if err := vs.RestoreSnapshot(cmd.Context(), tenantOf(cmd), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored snapshot %q\n", args[0])
			return nil
		},
	}
}
