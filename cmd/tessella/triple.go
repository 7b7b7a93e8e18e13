// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessella-dev/tessella/internal/store"
)

func newTripleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triple",
		Short: "Manage individual triples",
	}

	cmd.AddCommand(
		newTripleAddCmd(),
		newTripleGetCmd(),
		newTripleUpdateCmd(),
		newTripleRemoveCmd(),
		newTripleVerifyCmd(),
	)
	return cmd
}

func addTripleFlags(cmd *cobra.Command) {
	cmd.Flags().String("subject", "", "subject entity id")
	cmd.Flags().String("predicate", "", "predicate URI")
	cmd.Flags().String("object", "", "object entity id or literal value")
	cmd.Flags().String("graph", "", "named graph URI")
	cmd.Flags().Bool("literal", false, "object is a literal value")
	cmd.Flags().String("datatype", "", "literal datatype URI")
	cmd.Flags().String("lang", "", "literal language tag")
	cmd.Flags().Float64("confidence", 1.0, "confidence score in [0,1]")
	cmd.Flags().String("source", "", "source document id")
}

func newTripleAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a triple",
		RunE:  runTripleAdd,
	}
	addTripleFlags(cmd)
	cmd.Flags().String("id", "", "triple id (generated when empty)")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("predicate")
	_ = cmd.MarkFlagRequired("object")
	return cmd
}

func runTripleAdd(cmd *cobra.Command, _ []string) error {
	ts, vs, err := openStores(cmd)
	if err != nil {
		return err
	}
	defer closeStores(ts, vs)

	id, _ := cmd.Flags().GetString("id")
	subject, _ := cmd.Flags().GetString("subject")
	predicate, _ := cmd.Flags().GetString("predicate")
	object, _ := cmd.Flags().GetString("object")
	graph, _ := cmd.Flags().GetString("graph")
	literal, _ := cmd.Flags().GetBool("literal")
	datatype, _ := cmd.Flags().GetString("datatype")
	lang, _ := cmd.Flags().GetString("lang")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	source, _ := cmd.Flags().GetString("source")

	t := &store.Triple{
		ID:               id,
		SubjectID:        subject,
		PredicateURI:     predicate,
		ObjectID:         object,
		GraphURI:         graph,
		IsLiteral:        literal,
		LiteralDataType:  datatype,
		LanguageTag:      lang,
		ConfidenceScore:  confidence,
		SourceDocumentID: source,
	}
	if err := ts.AddTriple(cmd.Context(), tenantOf(cmd), t); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (version %d)\n", t.ID, t.Version)
	return nil
}

func newTripleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one triple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			t, err := ts.GetTriple(cmd.Context(), tenantOf(cmd), args[0])
			if err != nil {
				return err
			}
			printTriple(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func newTripleUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a triple's fields",
		Args:  cobra.ExactArgs(1),
		RunE:  runTripleUpdate,
	}
	addTripleFlags(cmd)
	return cmd
}

func runTripleUpdate(cmd *cobra.Command, args []string) error {
	ts, vs, err := openStores(cmd)
	if err != nil {
		return err
	}
	defer closeStores(ts, vs)

	tenant := tenantOf(cmd)
	t, err := ts.GetTriple(cmd.Context(), tenant, args[0])
	if err != nil {
		return err
	}

	// Only flags the user actually set override the stored values.
	if cmd.Flags().Changed("subject") {
		t.SubjectID, _ = cmd.Flags().GetString("subject")
	}
	if cmd.Flags().Changed("predicate") {
		t.PredicateURI, _ = cmd.Flags().GetString("predicate")
	}
	if cmd.Flags().Changed("object") {
		t.ObjectID, _ = cmd.Flags().GetString("object")
	}
	if cmd.Flags().Changed("graph") {
		t.GraphURI, _ = cmd.Flags().GetString("graph")
	}
	if cmd.Flags().Changed("literal") {
		t.IsLiteral, _ = cmd.Flags().GetBool("literal")
	}
	if cmd.Flags().Changed("datatype") {
		t.LiteralDataType, _ = cmd.Flags().GetString("datatype")
	}
	if cmd.Flags().Changed("lang") {
		t.LanguageTag, _ = cmd.Flags().GetString("lang")
	}
	if cmd.Flags().Changed("confidence") {
		t.ConfidenceScore, _ = cmd.Flags().GetFloat64("confidence")
	}
	if cmd.Flags().Changed("source") {
		t.SourceDocumentID, _ = cmd.Flags().GetString("source")
	}

	if err := ts.UpdateTriple(cmd.Context(), tenant, t); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s (version %d)\n", t.ID, t.Version)
	return nil
}

func newTripleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a triple (history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			if err := ts.RemoveTriple(cmd.Context(), tenantOf(cmd), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newTripleVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Mark a triple as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, vs, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeStores(ts, vs)

			by, _ := cmd.Flags().GetString("by")
			if err := ts.VerifyTriple(cmd.Context(), tenantOf(cmd), args[0], by); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "verified %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("by", "", "user id recorded as the verifier")
	return cmd
}

func closeStores(ts store.TripleStore, vs store.VersionStore) {
	_ = vs.Close()
	_ = ts.Close()
}

func printTriple(out io.Writer, t *store.Triple) {
	_, _ = fmt.Fprintf(out, "%s\n", t.ID)
	_, _ = fmt.Fprintf(out, "  subject:    %s\n", t.SubjectID)
	_, _ = fmt.Fprintf(out, "  predicate:  %s\n", t.PredicateURI)
	_, _ = fmt.Fprintf(out, "  object:     %s\n", t.ObjectID)
	if t.IsLiteral {
		_, _ = fmt.Fprintf(out, "  literal:    true (datatype %s, lang %q)\n", t.LiteralDataType, t.LanguageTag)
	}
	_, _ = fmt.Fprintf(out, "  graph:      %s\n", t.GraphURI)
	_, _ = fmt.Fprintf(out, "  confidence: %.2f\n", t.ConfidenceScore)
	_, _ = fmt.Fprintf(out, "  verified:   %v\n", t.IsVerified)
	_, _ = fmt.Fprintf(out, "  version:    %d\n", t.Version)
	_, _ = fmt.Fprintf(out, "  updated:    %s\n", t.UpdatedAt.Format(time.RFC3339))
}
