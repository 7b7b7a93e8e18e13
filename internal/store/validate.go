// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import (
	"math"

	"github.com/tessella-dev/tessella/pkg/errors"
)

// ValidateTenantID rejects nil-argument-grade failures fast: a missing
// tenant id is a caller bug, not a not-found condition.
func ValidateTenantID(tenantID string) error {
	if tenantID == "" {
		return errors.New(errors.CodeStoreTenantInvalid, "tenant id is empty")
	}
	return nil
}

// ValidateTriple checks the structural invariants applied when the
// ValidateTriples option is on. minConfidence is the store's configured
// MinConfidenceThreshold.
func ValidateTriple(t *Triple, minConfidence float64) error {
	if t == nil {
		return errors.New(errors.CodeStoreTripleInvalid, "triple is nil")
	}
	if t.SubjectID == "" {
		return errors.New(errors.CodeStoreTripleInvalid, "triple has no subject", errors.FieldTripleID(t.ID))
	}
	if t.PredicateURI == "" {
		return errors.New(errors.CodeStoreTripleInvalid, "triple has no predicate", errors.FieldTripleID(t.ID))
	}
	if t.ObjectID == "" {
		return errors.New(errors.CodeStoreTripleInvalid, "triple has no object", errors.FieldTripleID(t.ID))
	}
	if math.IsNaN(t.ConfidenceScore) || t.ConfidenceScore < 0 || t.ConfidenceScore > 1 {
		return errors.New(errors.CodeStoreTripleInvalid, "confidence score outside [0,1]",
			errors.FieldTripleID(t.ID), errors.Field("confidence", t.ConfidenceScore))
	}
	if t.ConfidenceScore < minConfidence {
		return errors.New(errors.CodeStoreTripleInvalid, "confidence score below threshold",
			errors.FieldTripleID(t.ID),
			errors.Field("confidence", t.ConfidenceScore),
			errors.Field("threshold", minConfidence))
	}
	return nil
}
