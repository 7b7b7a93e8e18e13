// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Manage named graphs",
	}

	cmd.AddCommand(newGraphCreateCmd(), newGraphRemoveCmd())
	return cmd
}

func newGraphCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <uri>",
		Short: "Register a named graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			if err := ts.CreateGraph(cmd.Context(), tenantOf(cmd), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created graph %s\n", args[0])
			return nil
		},
	}
}

func newGraphRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uri>",
		Short: "Remove a named graph and all its triples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			removed, err := ts.RemoveGraph(cmd.Context(), tenantOf(cmd), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed graph %s (%d triples)\n", args[0], removed)
			return nil
		},
	}
}
