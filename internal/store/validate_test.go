// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tessella-dev/tessella/internal/store"
	tesserr "github.com/tessella-dev/tessella/pkg/errors"
)

func TestValidateTenantID(t *testing.T) {
	assert.NoError(t, store.ValidateTenantID("acme"))

	err := store.ValidateTenantID("")
	assert.Error(t, err)
	assert.True(t, tesserr.IsInvalidInput(err))
}

func TestValidateTriple(t *testing.T) {
	valid := func() *store.Triple {
		return &store.Triple{
			SubjectID:       "s",
			PredicateURI:    "p",
			ObjectID:        "o",
			ConfidenceScore: 0.9,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*store.Triple)
		wantErr bool
	}{
		{"valid", nil, false},
		{"missing subject", func(tr *store.Triple) { tr.SubjectID = "" }, true},
		{"missing predicate", func(tr *store.Triple) { tr.PredicateURI = "" }, true},
		{"missing object", func(tr *store.Triple) { tr.ObjectID = "" }, true},
		{"confidence above 1", func(tr *store.Triple) { tr.ConfidenceScore = 1.2 }, true},
		{"confidence negative", func(tr *store.Triple) { tr.ConfidenceScore = -0.1 }, true},
		{"confidence NaN", func(tr *store.Triple) { tr.ConfidenceScore = math.NaN() }, true},
		{"below threshold", func(tr *store.Triple) { tr.ConfidenceScore = 0.3 }, true},
		{"at threshold", func(tr *store.Triple) { tr.ConfidenceScore = 0.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid()
			if tt.mutate != nil {
				tt.mutate(tr)
			}
			err := store.ValidateTriple(tr, 0.5)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, tesserr.IsInvalidInput(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	err := store.ValidateTriple(nil, 0.5)
	assert.Error(t, err)
}
