// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import "github.com/tessella-dev/tessella/pkg/types"

// DiffVersions compares two version records field by field. The direction is
// always from -> to; callers passing a later from-version get a diff that
// describes the backward transition. Shared by every backend so diff
// semantics cannot drift between them.
func DiffVersions(from, to *TripleVersion) *TripleDiff {
	d := &TripleDiff{
		TripleID:    from.TripleID,
		TenantID:    from.TenantID,
		FromVersion: from.VersionNumber,
		ToVersion:   to.VersionNumber,
		Changed:     map[string]FieldChange{},
	}

	if from.SubjectID != to.SubjectID {
		d.Subject = &FieldChange{Old: types.String(from.SubjectID), New: types.String(to.SubjectID)}
	}
	if from.PredicateURI != to.PredicateURI {
		d.Predicate = &FieldChange{Old: types.String(from.PredicateURI), New: types.String(to.PredicateURI)}
	}
	if from.ObjectID != to.ObjectID {
		d.Object = &FieldChange{Old: types.String(from.ObjectID), New: types.String(to.ObjectID)}
	}
	d.IsCoreSemantic = d.Subject != nil || d.Predicate != nil || d.Object != nil

	if from.GraphURI != to.GraphURI {
		d.Changed["graph_uri"] = FieldChange{Old: types.String(from.GraphURI), New: types.String(to.GraphURI)}
	}
	if from.ConfidenceScore != to.ConfidenceScore {
		d.Changed["confidence_score"] = FieldChange{Old: types.Float(from.ConfidenceScore), New: types.Float(to.ConfidenceScore)}
	}
	if from.IsLiteral != to.IsLiteral {
		d.Changed["is_literal"] = FieldChange{Old: types.Bool(from.IsLiteral), New: types.Bool(to.IsLiteral)}
	}
	if from.LiteralDataType != to.LiteralDataType {
		d.Changed["literal_data_type"] = FieldChange{Old: types.String(from.LiteralDataType), New: types.String(to.LiteralDataType)}
	}
	if from.LanguageTag != to.LanguageTag {
		d.Changed["language_tag"] = FieldChange{Old: types.String(from.LanguageTag), New: types.String(to.LanguageTag)}
	}
	if from.SourceDocumentID != to.SourceDocumentID {
		d.Changed["source_document_id"] = FieldChange{Old: types.String(from.SourceDocumentID), New: types.String(to.SourceDocumentID)}
	}
	if from.IsVerified != to.IsVerified {
		d.Changed["is_verified"] = FieldChange{Old: types.Bool(from.IsVerified), New: types.Bool(to.IsVerified)}
	}

	return d
}
