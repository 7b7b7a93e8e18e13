// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessella-dev/tessella/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and restore triple version history",
	}

	cmd.AddCommand(
		newHistoryShowCmd(),
		newHistoryDiffCmd(),
		newHistoryRestoreCmd(),
	)
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <triple-id>",
		Short: "List a triple's versions, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			max, _ := cmd.Flags().GetInt("max")
			history, err := vs.GetVersionHistory(cmd.Context(), tenantOf(cmd), args[0], max)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(history) == 0 {
				_, _ = fmt.Fprintf(out, "no versions recorded for %s\n", args[0])
				return nil
			}
			for _, rec := range history {
				line := fmt.Sprintf("v%-3d %-16s %s  %s %s %s",
					rec.VersionNumber, rec.ChangeType,
					rec.CreatedAt.Format(time.RFC3339),
					rec.SubjectID, rec.PredicateURI, rec.ObjectID)
				if rec.ChangeComment != "" {
					line += fmt.Sprintf("  (%s)", rec.ChangeComment)
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().Int("max", 0, "maximum versions to show (0 shows all)")
	return cmd
}

func newHistoryDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <triple-id> <from-version> <to-version>",
		Short: "Show the field changes between two versions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing from-version: %w", err)
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("parsing to-version: %w", err)
			}

			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			diff, err := vs.GetVersionDiff(cmd.Context(), tenantOf(cmd), args[0], from, to)
			if err != nil {
				return err
			}
			printDiff(cmd, diff)
			return nil
		},
	}
}

func printDiff(cmd *cobra.Command, diff *store.TripleDiff) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s: v%d -> v%d\n", diff.TripleID, diff.FromVersion, diff.ToVersion)
	if diff.IsCoreSemantic {
		_, _ = fmt.Fprintln(out, "  core statement changed")
	}
	if diff.Subject != nil {
		_, _ = fmt.Fprintf(out, "  subject:   %s -> %s\n", diff.Subject.Old.String(), diff.Subject.New.String())
	}
	if diff.Predicate != nil {
		_, _ = fmt.Fprintf(out, "  predicate: %s -> %s\n", diff.Predicate.Old.String(), diff.Predicate.New.String())
	}
	if diff.Object != nil {
		_, _ = fmt.Fprintf(out, "  object:    %s -> %s\n", diff.Object.Old.String(), diff.Object.New.String())
	}
	fields := make([]string, 0, len(diff.Changed))
	for field := range diff.Changed {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fc := diff.Changed[field]
		_, _ = fmt.Fprintf(out, "  %s: %s -> %s\n", field, fc.Old.String(), fc.New.String())
	}
	if !diff.IsCoreSemantic && len(diff.Changed) == 0 {
		_, _ = fmt.Fprintln(out, "  no changes")
	}
}

func newHistoryRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <triple-id> <version>",
		Short: "Restore a triple to an earlier version's values",
		Long:  "Copies the target version's values into a new forward version; history is never rewound.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing version: %w", err)
			}

			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			by, _ := cmd.Flags().GetString("by")
			comment, _ := cmd.Flags().GetString("comment")
			t, err := vs.RestoreVersion(cmd.Context(), tenantOf(cmd), args[0], version,
				store.VersionMeta{ChangedByUserID: by, ChangeComment: comment})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored %s to values of v%d (now v%d)\n", t.ID, version, t.Version)
			return nil
		},
	}
	cmd.Flags().String("by", "", "user id recorded for the restoration")
	cmd.Flags().String("comment", "", "comment recorded for the restoration")
	return cmd
}
