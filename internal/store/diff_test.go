// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/pkg/types"
)

func versionFixture(num int, mutate func(*store.TripleVersion)) *store.TripleVersion {
	v := &store.TripleVersion{
		TripleID:        "t-1",
		TenantID:        "acme",
		VersionNumber:   num,
		ChangeType:      store.ChangeUpdate,
		SubjectID:       "e-subject",
		PredicateURI:    "knows",
		ObjectID:        "e-object",
		GraphURI:        "urn:g:main",
		ConfidenceScore: 0.9,
	}
	if mutate != nil {
		mutate(v)
	}
	return v
}

func TestDiffVersions_NoChanges(t *testing.T) {
	from := versionFixture(1, nil)
	to := versionFixture(2, nil)

	d := store.DiffVersions(from, to)
	assert.Equal(t, "t-1", d.TripleID)
	assert.Equal(t, 1, d.FromVersion)
	assert.Equal(t, 2, d.ToVersion)
	assert.False(t, d.IsCoreSemantic)
	assert.Nil(t, d.Subject)
	assert.Nil(t, d.Predicate)
	assert.Nil(t, d.Object)
	assert.Empty(t, d.Changed)
}

func TestDiffVersions_CoreChange(t *testing.T) {
	from := versionFixture(1, nil)
	to := versionFixture(2, func(v *store.TripleVersion) {
		v.ObjectID = "e-other"
	})

	d := store.DiffVersions(from, to)
	assert.True(t, d.IsCoreSemantic)
	require.NotNil(t, d.Object)
	assert.True(t, d.Object.Old.Equal(types.String("e-object")))
	assert.True(t, d.Object.New.Equal(types.String("e-other")))
	assert.Nil(t, d.Subject)
	assert.Nil(t, d.Predicate)
}

func TestDiffVersions_MetadataChange(t *testing.T) {
	from := versionFixture(1, nil)
	to := versionFixture(2, func(v *store.TripleVersion) {
		v.ConfidenceScore = 0.95
		v.IsVerified = true
		v.GraphURI = "urn:g:curated"
	})

	d := store.DiffVersions(from, to)
	assert.False(t, d.IsCoreSemantic)
	require.Len(t, d.Changed, 3)

	conf := d.Changed["confidence_score"]
	assert.True(t, conf.Old.Equal(types.Float(0.9)))
	assert.True(t, conf.New.Equal(types.Float(0.95)))

	verified := d.Changed["is_verified"]
	assert.True(t, verified.Old.Equal(types.Bool(false)))
	assert.True(t, verified.New.Equal(types.Bool(true)))

	graph := d.Changed["graph_uri"]
	assert.True(t, graph.New.Equal(types.String("urn:g:curated")))
}

// Backward diffs keep the requested direction instead of swapping.
func TestDiffVersions_BackwardDirection(t *testing.T) {
	from := versionFixture(3, func(v *store.TripleVersion) { v.ObjectID = "e-new" })
	to := versionFixture(1, nil)

	d := store.DiffVersions(from, to)
	assert.Equal(t, 3, d.FromVersion)
	assert.Equal(t, 1, d.ToVersion)
	require.NotNil(t, d.Object)
	assert.True(t, d.Object.Old.Equal(types.String("e-new")))
	assert.True(t, d.Object.New.Equal(types.String("e-object")))
}
