// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessella-dev/tessella/internal/store"
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
	"github.com/tessella-dev/tessella/pkg/types"
)

func TestTripleFromRelation(t *testing.T) {
	rel := &store.Relation{
		ID:               "r-1",
		TenantID:         "acme",
		SourceEntityID:   "e-src",
		TargetEntityID:   "e-dst",
		Type:             "employs",
		ConfidenceScore:  0.8,
		SourceDocumentID: "doc-1",
	}

	tr, err := store.TripleFromRelation(rel, "urn:g:main")
	require.NoError(t, err)
	assert.Equal(t, "e-src", tr.SubjectID)
	assert.Equal(t, "employs", tr.PredicateURI)
	assert.Equal(t, "e-dst", tr.ObjectID)
	assert.False(t, tr.IsLiteral)
	assert.Equal(t, "urn:g:main", tr.GraphURI)
	assert.Equal(t, 0.8, tr.ConfidenceScore)
	assert.Equal(t, "doc-1", tr.SourceDocumentID)
}

func TestTripleFromRelation_Invalid(t *testing.T) {
	_, err := store.TripleFromRelation(nil, "g")
	assert.True(t, tesserr.IsInvalidInput(err))

	_, err = store.TripleFromRelation(&store.Relation{Type: "t"}, "g")
	assert.True(t, tesserr.IsInvalidInput(err))

	_, err = store.TripleFromRelation(&store.Relation{SourceEntityID: "a", TargetEntityID: "b"}, "g")
	assert.True(t, tesserr.IsInvalidInput(err))
}

func TestTriplesFromEntityAttributes(t *testing.T) {
	ent := &store.Entity{
		ID:               "e-1",
		TenantID:         "acme",
		Name:             "Widget",
		ConfidenceScore:  0.7,
		SourceDocumentID: "doc-2",
		Attributes: types.Map{
			"weight": types.Float(2.5),
			"name":   types.String("Widget"),
			"count":  types.Int(12),
			"active": types.Bool(true),
		},
	}

	triples, err := store.TriplesFromEntityAttributes(ent, "urn:g:main")
	require.NoError(t, err)
	require.Len(t, triples, 4)

	// Attributes expand in sorted key order.
	assert.Equal(t, "attr:active", triples[0].PredicateURI)
	assert.Equal(t, "attr:count", triples[1].PredicateURI)
	assert.Equal(t, "attr:name", triples[2].PredicateURI)
	assert.Equal(t, "attr:weight", triples[3].PredicateURI)

	assert.Equal(t, "true", triples[0].ObjectID)
	assert.Equal(t, store.DataTypeBoolean, triples[0].LiteralDataType)
	assert.Equal(t, "12", triples[1].ObjectID)
	assert.Equal(t, store.DataTypeInteger, triples[1].LiteralDataType)
	assert.Equal(t, store.DataTypeString, triples[2].LiteralDataType)
	assert.Equal(t, "2.5", triples[3].ObjectID)
	assert.Equal(t, store.DataTypeDouble, triples[3].LiteralDataType)

	for _, tr := range triples {
		assert.Equal(t, "e-1", tr.SubjectID)
		assert.True(t, tr.IsLiteral)
		assert.Equal(t, 0.7, tr.ConfidenceScore)
	}
}

func TestTriplesFromEntityAttributes_Invalid(t *testing.T) {
	_, err := store.TriplesFromEntityAttributes(nil, "g")
	assert.True(t, tesserr.IsInvalidInput(err))

	_, err = store.TriplesFromEntityAttributes(&store.Entity{}, "g")
	assert.True(t, tesserr.IsInvalidInput(err))

	triples, err := store.TriplesFromEntityAttributes(&store.Entity{ID: "e"}, "g")
	require.NoError(t, err)
	assert.Empty(t, triples)
}

func TestVersionTripleRoundTrip(t *testing.T) {
	tr := &store.Triple{
		ID:              "t-9",
		TenantID:        "acme",
		SubjectID:       "s",
		PredicateURI:    "p",
		ObjectID:        "o",
		IsLiteral:       true,
		LiteralDataType: store.DataTypeString,
		GraphURI:        "urn:g:main",
		ConfidenceScore: 0.6,
		IsVerified:      true,
	}

	v := store.VersionFromTriple(tr, store.ChangeUpdate, store.VersionMeta{ChangedByUserID: "u-1", ChangeComment: "tweak"})
	assert.Equal(t, "t-9", v.TripleID)
	assert.Equal(t, store.ChangeUpdate, v.ChangeType)
	assert.Equal(t, "u-1", v.ChangedByUserID)
	assert.Equal(t, "tweak", v.ChangeComment)

	v.VersionNumber = 4
	back := store.TripleFromVersion(v)
	assert.Equal(t, tr.ID, back.ID)
	assert.Equal(t, tr.SubjectID, back.SubjectID)
	assert.Equal(t, tr.ObjectID, back.ObjectID)
	assert.Equal(t, tr.IsVerified, back.IsVerified)
	assert.Equal(t, 4, back.Version)
}
