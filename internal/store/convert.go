// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import (
	"github.com/tessella-dev/tessella/pkg/errors"
	"github.com/tessella-dev/tessella/pkg/types"
)

// AttributePredicatePrefix namespaces predicates minted from entity
// attribute names, keeping them apart from relation-type predicates.
const AttributePredicatePrefix = "attr:"

// XSD datatype URIs stamped on literal triples.
const (
	DataTypeString  = "xsd:string"
	DataTypeInteger = "xsd:integer"
	DataTypeDouble  = "xsd:double"
	DataTypeBoolean = "xsd:boolean"
	DataTypeJSON    = "xsd:json"
)

// TripleFromRelation maps a relation-mapping DTO onto a reference triple:
// source entity as subject, relation type as predicate, target entity as
// object.
func TripleFromRelation(rel *Relation, graphURI string) (*Triple, error) {
	if rel == nil {
		return nil, errors.New(errors.CodeStoreRelationInvalid, "relation is nil")
	}
	if rel.SourceEntityID == "" || rel.TargetEntityID == "" {
		return nil, errors.New(errors.CodeStoreRelationInvalid, "relation is missing source or target entity",
			errors.Field("relation_id", rel.ID))
	}
	if rel.Type == "" {
		return nil, errors.New(errors.CodeStoreRelationInvalid, "relation has no type",
			errors.Field("relation_id", rel.ID))
	}

	return &Triple{
		TenantID:         rel.TenantID,
		SubjectID:        rel.SourceEntityID,
		PredicateURI:     rel.Type,
		ObjectID:         rel.TargetEntityID,
		IsLiteral:        false,
		GraphURI:         graphURI,
		ConfidenceScore:  rel.ConfidenceScore,
		SourceDocumentID: rel.SourceDocumentID,
	}, nil
}

// TriplesFromEntityAttributes expands every attribute of an entity into one
// literal triple: attribute name becomes the predicate (under
// AttributePredicatePrefix), attribute value becomes the literal object.
// Attributes are expanded in sorted key order so batch results are
// deterministic.
func TriplesFromEntityAttributes(ent *Entity, graphURI string) ([]*Triple, error) {
	if ent == nil {
		return nil, errors.New(errors.CodeStoreEntityInvalid, "entity is nil")
	}
	if ent.ID == "" {
		return nil, errors.New(errors.CodeStoreEntityInvalid, "entity has no id")
	}

	triples := make([]*Triple, 0, len(ent.Attributes))
	for _, name := range ent.Attributes.Keys() {
		val := ent.Attributes[name]
		triples = append(triples, &Triple{
			TenantID:         ent.TenantID,
			SubjectID:        ent.ID,
			PredicateURI:     AttributePredicatePrefix + name,
			ObjectID:         val.String(),
			IsLiteral:        true,
			LiteralDataType:  literalDataType(val),
			GraphURI:         graphURI,
			ConfidenceScore:  ent.ConfidenceScore,
			SourceDocumentID: ent.SourceDocumentID,
		})
	}
	return triples, nil
}

func literalDataType(v types.Value) string {
	switch v.Kind() {
	case types.KindInt:
		return DataTypeInteger
	case types.KindFloat:
		return DataTypeDouble
	case types.KindBool:
		return DataTypeBoolean
	case types.KindMap, types.KindList:
		return DataTypeJSON
	default:
		return DataTypeString
	}
}

// VersionFromTriple snapshots a triple's field values into a version record.
// The backend assigns ID, VersionNumber, and CreatedAt under its per-triple
// lock.
func VersionFromTriple(t *Triple, change ChangeType, meta VersionMeta) *TripleVersion {
	return &TripleVersion{
		TripleID:         t.ID,
		TenantID:         t.TenantID,
		ChangeType:       change,
		ChangedByUserID:  meta.ChangedByUserID,
		ChangeComment:    meta.ChangeComment,
		SubjectID:        t.SubjectID,
		PredicateURI:     t.PredicateURI,
		ObjectID:         t.ObjectID,
		IsLiteral:        t.IsLiteral,
		LiteralDataType:  t.LiteralDataType,
		LanguageTag:      t.LanguageTag,
		GraphURI:         t.GraphURI,
		ConfidenceScore:  t.ConfidenceScore,
		SourceDocumentID: t.SourceDocumentID,
		IsVerified:       t.IsVerified,
	}
}

// TripleFromVersion rebuilds the triple state a version captured. Used by
// restore operations and as-of reconstruction.
func TripleFromVersion(v *TripleVersion) *Triple {
	return &Triple{
		ID:               v.TripleID,
		TenantID:         v.TenantID,
		SubjectID:        v.SubjectID,
		PredicateURI:     v.PredicateURI,
		ObjectID:         v.ObjectID,
		IsLiteral:        v.IsLiteral,
		LiteralDataType:  v.LiteralDataType,
		LanguageTag:      v.LanguageTag,
		GraphURI:         v.GraphURI,
		ConfidenceScore:  v.ConfidenceScore,
		SourceDocumentID: v.SourceDocumentID,
		IsVerified:       v.IsVerified,
		Version:          v.VersionNumber,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.CreatedAt,
	}
}
