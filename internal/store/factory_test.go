// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessella-dev/tessella/internal/store"
	_ "github.com/tessella-dev/tessella/internal/store/memory" // register memory backend
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

func TestNew_Memory(t *testing.T) {
	ts, vs, err := store.New(store.DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, ts)
	assert.NotNil(t, vs)
	require.NoError(t, vs.Close())
	require.NoError(t, ts.Close())
}

func TestNew_EmptyTypeDefaultsToMemory(t *testing.T) {
	opts := store.DefaultOptions()
	opts.StoreType = ""

	ts, vs, err := store.New(opts)
	require.NoError(t, err)
	assert.NotNil(t, ts)
	require.NoError(t, vs.Close())
	require.NoError(t, ts.Close())
}

func TestNew_UnsupportedBackend(t *testing.T) {
	opts := store.DefaultOptions()
	opts.StoreType = store.StoreTypeNoSQL

	_, _, err := store.New(opts)
	require.Error(t, err)
	assert.True(t, tesserr.IsUnsupported(err))
}

func TestDefaultOptions(t *testing.T) {
	opts := store.DefaultOptions()
	assert.Equal(t, store.StoreTypeMemory, opts.StoreType)
	assert.True(t, opts.EnableVersioning)
	assert.True(t, opts.ValidateTriples)
	assert.Equal(t, store.DefaultQueryLimit, opts.DefaultQueryLimit)
	assert.Equal(t, store.DefaultQueryTimeoutSeconds, opts.QueryTimeoutSeconds)
	assert.Equal(t, store.DefaultMinConfidenceThreshold, opts.MinConfidenceThreshold)
	assert.Equal(t, store.DefaultGraphURI, opts.DefaultGraphURI)
}
