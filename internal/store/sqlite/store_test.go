// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/internal/store/sqlite"
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

func newTestStore(t *testing.T) (*sqlite.Store, *sqlite.Versions) {
	t.Helper()
	opts := store.DefaultOptions()
	opts.StoreType = store.StoreTypeSQL
	opts.ConnectionString = filepath.Join(t.TempDir(), "tessella.db")

	s, v, err := sqlite.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, v
}

func newTriple(id, subject, object string) *store.Triple {
	return &store.Triple{
		ID:              id,
		SubjectID:       subject,
		PredicateURI:    "knows",
		ObjectID:        object,
		ConfidenceScore: 0.9,
	}
}

func TestOpen_RequiresConnectionString(t *testing.T) {
	opts := store.DefaultOptions()
	opts.StoreType = store.StoreTypeSQL

	_, _, err := sqlite.Open(opts)
	require.Error(t, err)
	assert.True(t, tesserr.IsInvalidInput(err))
}

func TestAddGetTriple(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("", "e-1", "e-2")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, 1, tr.Version)
	assert.Equal(t, store.DefaultGraphURI, tr.GraphURI)

	got, err := s.GetTriple(ctx, "acme", tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "e-1", got.SubjectID)
	assert.Equal(t, "e-2", got.ObjectID)
	assert.Equal(t, 1, got.Version)

	err = s.AddTriple(ctx, "acme", newTriple(tr.ID, "x", "y"))
	require.Error(t, err)
	assert.True(t, tesserr.IsConflict(err))
}

// State survives closing and reopening the database file.
func TestPersistenceAcrossReopen(t *testing.T) {
	opts := store.DefaultOptions()
	opts.StoreType = store.StoreTypeSQL
	opts.ConnectionString = filepath.Join(t.TempDir(), "tessella.db")
	ctx := context.Background()

	s, v, err := sqlite.Open(opts)
	require.NoError(t, err)
	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	tr.ObjectID = "c"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))
	require.NoError(t, v.CreateSnapshot(ctx, "acme", "before-close", nil))
	require.NoError(t, s.Close())

	s, v, err = sqlite.Open(opts)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.GetTriple(ctx, "acme", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "c", got.ObjectID)
	assert.Equal(t, 2, got.Version)

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	snaps, err := v.Snapshots(ctx, "acme")
	require.NoError(t, err)
	assert.Contains(t, snaps, "before-close")
}

func TestUpdateTriple_ChangeClassification(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))

	tr.ConfidenceScore = 0.95
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))
	assert.Equal(t, 2, tr.Version)

	tr.ObjectID = "other"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))
	assert.Equal(t, 3, tr.Version)

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, store.ChangeUpdate, history[0].ChangeType)
	assert.Equal(t, store.ChangeMetadataUpdate, history[1].ChangeType)
	assert.Equal(t, store.ChangeCreation, history[2].ChangeType)

	err = s.UpdateTriple(ctx, "acme", newTriple("missing", "a", "b"))
	assert.True(t, tesserr.IsNotFound(err))
}

func TestRemoveTriple_DeletionVersion(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	tr.ObjectID = "c"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))
	require.NoError(t, s.RemoveTriple(ctx, "acme", "t-1"))

	_, err := s.GetTriple(ctx, "acme", "t-1")
	assert.True(t, tesserr.IsNotFound(err))

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, store.ChangeDeletion, history[0].ChangeType)
	assert.Equal(t, 3, history[0].VersionNumber)
	assert.Equal(t, "c", history[0].ObjectID)
}

func TestVerifyTriple(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddTriple(ctx, "acme", newTriple("t-1", "a", "b")))
	require.NoError(t, s.VerifyTriple(ctx, "acme", "t-1", "u-1"))

	got, err := s.GetTriple(ctx, "acme", "t-1")
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.Equal(t, 2, got.Version)

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.ChangeVerification, history[0].ChangeType)
	assert.Equal(t, "u-1", history[0].ChangedByUserID)
}

func TestQuery_FiltersAndPagination(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tr := newTriple(fmt.Sprintf("t-%d", i), "e-1", fmt.Sprintf("o-%d", i))
		if i >= 3 {
			tr.SubjectID = "e-2"
			tr.ConfidenceScore = 0.6
		}
		require.NoError(t, s.AddTriple(ctx, "acme", tr))
	}

	res, err := s.Query(ctx, "acme", store.TripleQuery{SubjectID: "e-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)

	res, err = s.Query(ctx, "acme", store.TripleQuery{MinConfidence: 0.8})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)

	res, err = s.Query(ctx, "acme", store.TripleQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Triples, 2)
	assert.Equal(t, 5, res.TotalCount)
	assert.True(t, res.HasMore)

	// The custom Go-side predicate still applies on the SQL path.
	res, err = s.Query(ctx, "acme", store.TripleQuery{
		Filter: func(tr *store.Triple) bool { return tr.ObjectID == "o-4" },
	})
	require.NoError(t, err)
	require.Len(t, res.Triples, 1)
	assert.Equal(t, "t-4", res.Triples[0].ID)
}

// Stored timestamps are fixed-width, so a range bound on a whole second
// still compares correctly against fractional-second values in SQL.
func TestQuery_WholeSecondDateBounds(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	second := tr.CreatedAt.Truncate(time.Second)

	res, err := s.Query(ctx, "acme", store.TripleQuery{CreatedAfter: second})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)

	res, err = s.Query(ctx, "acme", store.TripleQuery{CreatedBefore: second.Add(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)

	res, err = s.Query(ctx, "acme", store.TripleQuery{
		CreatedAfter:  second,
		CreatedBefore: second.Add(time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)

	res, err = s.Query(ctx, "acme", store.TripleQuery{CreatedAfter: second.Add(time.Second)})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestUpdateTriple_GraphMigration(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))

	tr.GraphURI = "urn:g:curated"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.ChangeGraphMigration, history[0].ChangeType)
	assert.Equal(t, "urn:g:curated", history[0].GraphURI)
}

func TestTenantIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddTriple(ctx, "acme", newTriple("t-1", "a", "b")))
	require.NoError(t, s.AddTriple(ctx, "globex", newTriple("t-1", "x", "y")))

	got, err := s.GetTriple(ctx, "acme", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.SubjectID)

	require.NoError(t, s.RemoveTriple(ctx, "acme", "t-1"))
	got, err = s.GetTriple(ctx, "globex", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "x", got.SubjectID)

	res, err := s.Query(ctx, "unknown", store.TripleQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestGraphs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGraph(ctx, "acme", "urn:g:curated"))
	err := s.CreateGraph(ctx, "acme", "urn:g:curated")
	assert.True(t, tesserr.IsConflict(err))

	tr := newTriple("t-1", "a", "b")
	tr.GraphURI = "urn:g:curated"
	require.NoError(t, s.AddTriple(ctx, "acme", tr))

	removed, err := s.RemoveGraph(ctx, "acme", "urn:g:curated")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.RemoveGraph(ctx, "acme", "urn:g:nope")
	assert.True(t, tesserr.IsNotFound(err))
}

func TestStatistics(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := newTriple("t-1", "s", "o")
	a.ConfidenceScore = 0.8
	b := newTriple("t-2", "s", "lit")
	b.IsLiteral = true
	b.ConfidenceScore = 0.6
	b.GraphURI = "urn:g:alt"
	require.NoError(t, s.AddTriple(ctx, "acme", a))
	require.NoError(t, s.AddTriple(ctx, "acme", b))
	require.NoError(t, s.VerifyTriple(ctx, "acme", "t-1", "u"))

	stats, err := s.Statistics(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalTriples)
	assert.Equal(t, 1, stats.VerifiedTriples)
	assert.Equal(t, 1, stats.LiteralTriples)
	assert.Equal(t, 2, stats.GraphCount)
	assert.InDelta(t, 0.7, stats.AverageConfidence, 1e-9)
}

func TestQueryTemporal_AsOf(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	time.Sleep(10 * time.Millisecond)
	afterCreate := time.Now()
	time.Sleep(10 * time.Millisecond)

	tr.ObjectID = "c"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))

	res, err := v.QueryTemporal(ctx, "acme", store.TemporalQuery{AsOf: afterCreate})
	require.NoError(t, err)
	require.Len(t, res.Triples, 1)
	assert.Equal(t, "b", res.Triples[0].ObjectID)

	res, err = v.QueryTemporal(ctx, "acme", store.TemporalQuery{AsOf: time.Now()})
	require.NoError(t, err)
	require.Len(t, res.Triples, 1)
	assert.Equal(t, "c", res.Triples[0].ObjectID)
}

func TestRestoreVersion(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	tr.ObjectID = "c"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))

	restored, err := v.RestoreVersion(ctx, "acme", "t-1", 1, store.VersionMeta{ChangeComment: "undo"})
	require.NoError(t, err)
	assert.Equal(t, "b", restored.ObjectID)
	assert.Equal(t, 3, restored.Version)

	got, err := s.GetTriple(ctx, "acme", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ObjectID)
	assert.Equal(t, 3, got.Version)

	_, err = v.RestoreVersion(ctx, "acme", "t-1", 9, store.VersionMeta{})
	assert.True(t, tesserr.IsNotFound(err))
}

func TestRestoreSnapshot(t *testing.T) {
	s, v := newTestStore(t)
	ctx := context.Background()

	a := newTriple("t-a", "s", "v1")
	b := newTriple("t-b", "s", "w1")
	require.NoError(t, s.AddTriple(ctx, "acme", a))
	require.NoError(t, s.AddTriple(ctx, "acme", b))
	require.NoError(t, v.CreateSnapshot(ctx, "acme", "before", nil))

	a.ObjectID = "v2"
	require.NoError(t, s.UpdateTriple(ctx, "acme", a))
	require.NoError(t, s.RemoveTriple(ctx, "acme", "t-b"))

	require.NoError(t, v.RestoreSnapshot(ctx, "acme", "before"))

	gotA, err := s.GetTriple(ctx, "acme", "t-a")
	require.NoError(t, err)
	assert.Equal(t, "v1", gotA.ObjectID)
	assert.Equal(t, 3, gotA.Version)

	gotB, err := s.GetTriple(ctx, "acme", "t-b")
	require.NoError(t, err)
	assert.Equal(t, "w1", gotB.ObjectID)

	err = v.RestoreSnapshot(ctx, "acme", "missing")
	assert.True(t, tesserr.IsNotFound(err))
}

func TestRecordVersion_Gapless(t *testing.T) {
	_, v := newTestStore(t)
	ctx := context.Background()

	tr := newTriple("t-1", "a", "b")
	for i := 1; i <= 3; i++ {
		rec, err := v.RecordVersion(ctx, "acme", tr, store.ChangeCorrection, store.VersionMeta{})
		require.NoError(t, err)
		assert.Equal(t, i, rec.VersionNumber)
	}

	_, err := v.RecordVersion(ctx, "acme", tr, store.ChangeType("bogus"), store.VersionMeta{})
	assert.True(t, tesserr.IsInvalidInput(err))
}
