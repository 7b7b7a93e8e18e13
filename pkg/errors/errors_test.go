// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

// TestClassifiers_Direct verifies errors are classified by their code's last
// segment.
func TestClassifiers_Direct(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"NotFound triple", tesserr.New(tesserr.CodeStoreTripleNotFound, "not found"), tesserr.IsNotFound},
		{"NotFound version", tesserr.New(tesserr.CodeVersionNotFound, "not found"), tesserr.IsNotFound},
		{"NotFound snapshot", tesserr.New(tesserr.CodeSnapshotNotFound, "not found"), tesserr.IsNotFound},
		{"Conflict graph", tesserr.New(tesserr.CodeStoreGraphConflict, "conflict"), tesserr.IsConflict},
		{"Conflict triple", tesserr.New(tesserr.CodeStoreTripleConflict, "conflict"), tesserr.IsConflict},
		{"InvalidInput triple", tesserr.New(tesserr.CodeStoreTripleInvalid, "invalid"), tesserr.IsInvalidInput},
		{"InvalidInput tenant", tesserr.New(tesserr.CodeStoreTenantInvalid, "invalid"), tesserr.IsInvalidInput},
		{"Unsupported backend", tesserr.New(tesserr.CodeStoreBackendUnsupported, "unsupported"), tesserr.IsUnsupported},
		{"Timeout sparql", tesserr.New(tesserr.CodeStoreSparqlTimeout, "timeout"), tesserr.IsTimeout},
		{"Database via HasCode", tesserr.New(tesserr.CodeStoreDatabaseFailure, "db"), func(err error) bool {
			return tesserr.HasCode(err, tesserr.CodeStoreDatabaseFailure)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

// TestClassifiers_Wrapped verifies classification survives wrapping with both
// package and stdlib wrappers.
func TestClassifiers_Wrapped(t *testing.T) {
	base := tesserr.New(tesserr.CodeStoreTripleNotFound, "no such triple")

	wrapped := tesserr.Wrap(base, tesserr.CodeStoreDatabaseFailure, "outer")
	assert.True(t, tesserr.HasCode(wrapped, tesserr.CodeStoreDatabaseFailure))
	assert.True(t, errors.Is(wrapped, base))

	stdWrapped := fmt.Errorf("loading: %w", base)
	assert.True(t, tesserr.IsNotFound(stdWrapped))
	assert.Equal(t, tesserr.CodeStoreTripleNotFound, tesserr.CodeOf(stdWrapped))
}

func TestClassifiers_NonMatching(t *testing.T) {
	assert.False(t, tesserr.IsNotFound(nil))
	assert.False(t, tesserr.IsNotFound(errors.New("plain")))
	assert.False(t, tesserr.IsConflict(tesserr.New(tesserr.CodeStoreTripleNotFound, "nope")))
}

func TestCodeOf(t *testing.T) {
	err := tesserr.Errorf(tesserr.CodeVersionInvalid, "bad version %d", 7)
	assert.Equal(t, tesserr.CodeVersionInvalid, tesserr.CodeOf(err))
	assert.Equal(t, tesserr.Code(""), tesserr.CodeOf(errors.New("plain")))
	assert.Equal(t, tesserr.Code(""), tesserr.CodeOf(nil))
}

func TestFieldsOf(t *testing.T) {
	err := tesserr.New(tesserr.CodeStoreTripleNotFound, "not found",
		tesserr.FieldTenantID("acme"),
		tesserr.FieldTripleID("t-1"),
		tesserr.FieldVersion(3),
	)

	fields := tesserr.FieldsOf(err)
	require.NotNil(t, fields)
	assert.Equal(t, "acme", fields["tenant_id"])
	assert.Equal(t, "t-1", fields["triple_id"])
	assert.Equal(t, 3, fields["version"])
}

func TestWith_AppendsFields(t *testing.T) {
	err := tesserr.New(tesserr.CodeSnapshotNotFound, "missing", tesserr.FieldSnapshot("weekly"))
	err = tesserr.With(err, tesserr.FieldTenantID("acme"))

	fields := tesserr.FieldsOf(err)
	assert.Equal(t, "weekly", fields["snapshot"])
	assert.Equal(t, "acme", fields["tenant_id"])
	// Code is preserved through With.
	assert.True(t, tesserr.IsNotFound(err))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.NoError(t, tesserr.Wrap(nil, tesserr.CodeInternalFailure, "ignored"))
	assert.NoError(t, tesserr.Wrapf(nil, tesserr.CodeInternalFailure, "ignored %d", 1))
}

func TestJoin(t *testing.T) {
	a := tesserr.New(tesserr.CodeConfigInvalidValue, "bad a")
	b := tesserr.New(tesserr.CodeConfigInvalidValue, "bad b")

	joined := tesserr.Join(a, b)
	require.Error(t, joined)
	assert.True(t, errors.Is(joined, a))
	assert.True(t, errors.Is(joined, b))

	assert.NoError(t, tesserr.Join(nil, nil))
}
