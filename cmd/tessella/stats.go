// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts for a tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			stats, err := ts.Statistics(cmd.Context(), tenantOf(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "triples:     %d\n", stats.TotalTriples)
			_, _ = fmt.Fprintf(out, "verified:    %d\n", stats.VerifiedTriples)
			_, _ = fmt.Fprintf(out, "literals:    %d\n", stats.LiteralTriples)
			_, _ = fmt.Fprintf(out, "graphs:      %d\n", stats.GraphCount)
			_, _ = fmt.Fprintf(out, "avg conf:    %.3f\n", stats.AverageConfidence)

			uris := make([]string, 0, len(stats.TriplesByGraph))
			for uri := range stats.TriplesByGraph {
				uris = append(uris, uri)
			}
			sort.Strings(uris)
			for _, uri := range uris {
				_, _ = fmt.Fprintf(out, "  %-48s %d\n", uri, stats.TriplesByGraph[uri])
			}
			return nil
		},
	}
}
