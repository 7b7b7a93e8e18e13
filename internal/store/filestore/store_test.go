// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/internal/store/filestore"
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

func testOptions(path string) store.Options {
	opts := store.DefaultOptions()
	opts.StoreType = store.StoreTypeFile
	opts.ConnectionString = path
	return opts
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

func TestOpen_RequiresPath(t *testing.T) {
	opts := store.DefaultOptions()
	opts.StoreType = store.StoreTypeFile

	_, _, err := filestore.Open(opts)
	require.Error(t, err)
	assert.True(t, tesserr.IsInvalidInput(err))
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessella.yaml")
	s, _, err := filestore.Open(testOptions(path))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	res, err := s.Query(context.Background(), "acme", store.TripleQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessella.yaml")
	ctx := context.Background()

	s, v, err := filestore.Open(testOptions(path))
	require.NoError(t, err)

	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	tr.ObjectID = "c"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))
	require.NoError(t, s.CreateGraph(ctx, "acme", "urn:g:curated"))
	require.NoError(t, v.CreateSnapshot(ctx, "acme", "mid", nil))
	require.NoError(t, s.AddTriple(ctx, "globex", newTriple("t-1", "x", "y")))
	require.NoError(t, s.Close())

	s, v, err = filestore.Open(testOptions(path))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.GetTriple(ctx, "acme", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "c", got.ObjectID)
	assert.Equal(t, 2, got.Version)

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, store.ChangeUpdate, history[0].ChangeType)

	snaps, err := v.Snapshots(ctx, "acme")
	require.NoError(t, err)
	assert.Contains(t, snaps, "mid")

	other, err := s.GetTriple(ctx, "globex", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "x", other.SubjectID)

	err = s.CreateGraph(ctx, "acme", "urn:g:curated")
	assert.True(t, tesserr.IsConflict(err))
}

// A snapshot restore has to work against version history loaded from disk.
func TestRestoreAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessella.yaml")
	ctx := context.Background()

	s, v, err := filestore.Open(testOptions(path))
	require.NoError(t, err)
	tr := newTriple("t-1", "a", "b")
	require.NoError(t, s.AddTriple(ctx, "acme", tr))
	require.NoError(t, v.CreateSnapshot(ctx, "acme", "before", nil))
	tr.ObjectID = "c"
	require.NoError(t, s.UpdateTriple(ctx, "acme", tr))
	require.NoError(t, s.Close())

	s, v, err = filestore.Open(testOptions(path))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, v.RestoreSnapshot(ctx, "acme", "before"))
	got, err := s.GetTriple(ctx, "acme", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ObjectID)
	assert.Equal(t, 3, got.Version)
}

func TestRemoveTriplePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessella.yaml")
	ctx := context.Background()

	s, _, err := filestore.Open(testOptions(path))
	require.NoError(t, err)
	require.NoError(t, s.AddTriple(ctx, "acme", newTriple("t-1", "a", "b")))
	require.NoError(t, s.RemoveTriple(ctx, "acme", "t-1"))
	require.NoError(t, s.Close())

	s, v, err := filestore.Open(testOptions(path))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.GetTriple(ctx, "acme", "t-1")
	assert.True(t, tesserr.IsNotFound(err))

	history, err := v.GetVersionHistory(ctx, "acme", "t-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, store.ChangeDeletion, history[0].ChangeType)
}

func TestFlushIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tessella.yaml")
	ctx := context.Background()

	s, _, err := filestore.Open(testOptions(path))
	require.NoError(t, err)
	require.NoError(t, s.AddTriple(ctx, "acme", newTriple("t-1", "a", "b")))
	require.NoError(t, s.Close())

	// No stray temp files left behind after writes.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tessella.yaml", entries[0].Name())
}
