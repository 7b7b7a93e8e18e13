// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessella-dev/tessella/internal/store"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a tenant's current triples",
		RunE:  runQuery,
	}

	cmd.Flags().String("subject", "", "filter by subject id")
	cmd.Flags().String("predicate", "", "filter by predicate URI")
	cmd.Flags().String("object", "", "filter by object id")
	cmd.Flags().String("graph", "", "filter by graph URI")
	cmd.Flags().Float64("min-confidence", 0, "minimum confidence score")
	cmd.Flags().Bool("verified", false, "only verified triples")
	cmd.Flags().Int("offset", 0, "pagination offset")
	cmd.Flags().Int("limit", 0, "pagination limit (0 uses the store default)")
	cmd.Flags().String("as-of", "", "reconstruct state at this RFC3339 instant instead of querying current state")

	return cmd
}

func runQuery(cmd *cobra.Command, _ []string) error {
	ts, vs, err := openStores(cmd)
	if err != nil {
		return err
	}
	defer closeStores(ts, vs)

	out := cmd.OutOrStdout()
	tenant := tenantOf(cmd)

	if asOfStr, _ := cmd.Flags().GetString("as-of"); asOfStr != "" {
		asOf, err := time.Parse(time.RFC3339, asOfStr)
		if err != nil {
			return fmt.Errorf("parsing --as-of: %w", err)
		}
		graph, _ := cmd.Flags().GetString("graph")
		limit, _ := cmd.Flags().GetInt("limit")
		res, err := vs.QueryTemporal(cmd.Context(), tenant, store.TemporalQuery{
			AsOf:     asOf,
			GraphURI: graph,
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		for _, t := range res.Triples {
			_, _ = fmt.Fprintf(out, "%s  %s %s %s  (v%d)\n", t.ID, t.SubjectID, t.PredicateURI, t.ObjectID, t.Version)
		}
		_, _ = fmt.Fprintf(out, "%d triples as of %s\n", res.TotalCount, asOf.Format(time.RFC3339))
		return nil
	}

	q := store.TripleQuery{}
	q.SubjectID, _ = cmd.Flags().GetString("subject")
	q.PredicateURI, _ = cmd.Flags().GetString("predicate")
	q.ObjectID, _ = cmd.Flags().GetString("object")
	q.GraphURI, _ = cmd.Flags().GetString("graph")
	q.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
	q.Offset, _ = cmd.Flags().GetInt("offset")
	q.Limit, _ = cmd.Flags().GetInt("limit")
	if cmd.Flags().Changed("verified") {
		verified, _ := cmd.Flags().GetBool("verified")
		q.IsVerified = &verified
	}

	res, err := ts.Query(cmd.Context(), tenant, q)
	if err != nil {
		return err
	}

	for _, t := range res.Triples {
		_, _ = fmt.Fprintf(out, "%s  %s %s %s  (v%d, conf %.2f)\n",
			t.ID, t.SubjectID, t.PredicateURI, t.ObjectID, t.Version, t.ConfidenceScore)
	}
	_, _ = fmt.Fprintf(out, "%d of %d triples (offset %d)\n", len(res.Triples), res.TotalCount, res.Offset)
	if res.HasMore {
		_, _ = fmt.Fprintf(out, "more results available; rerun with --offset %d\n", res.Offset+len(res.Triples))
	}
	return nil
}
