// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/tessella-dev/tessella/pkg/types"
)

// ElementType identifies what kind of element a provenance record describes.
// This subsystem only ever records triples.
type ElementType string

const ElementTypeTriple ElementType = "triple"

// ProvenanceMetadata is the tracker's record for one element.
type ProvenanceMetadata struct {
	ElementID        string
	ElementType      ElementType
	TenantID         string
	SourceDocumentID string
	Confidence       float64
	IsVerified       bool
	VerifiedBy       string
	Justification    string
	Properties       types.Map
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProvenanceQuery filters tracker records.
type ProvenanceQuery struct {
	SourceDocumentID string
	VerifiedOnly     bool
	MinConfidence    float64
	Limit            int
}

// ProvenanceLineage is the ancestry chain of one element, root first.
type ProvenanceLineage struct {
	ElementID string
	Records   []*ProvenanceMetadata
	Depth     int
}

// ProvenanceTracker is the external provenance collaborator. All methods are
// invoked with ElementTypeTriple from this subsystem.
type ProvenanceTracker interface {
	RecordTripleProvenance(ctx context.Context, tenantID string, t *Triple) error
	GetProvenance(ctx context.Context, tenantID, elementID string, elementType ElementType) (*ProvenanceMetadata, error)
	UpdateProvenance(ctx context.Context, tenantID string, meta *ProvenanceMetadata) error
	DeleteProvenance(ctx context.Context, tenantID, elementID string, elementType ElementType) error
	VerifyElement(ctx context.Context, tenantID, elementID string, elementType ElementType, verifiedBy, justification string) error
	GetProvenanceLineage(ctx context.Context, tenantID, elementID string, elementType ElementType, maxDepth int) (*ProvenanceLineage, error)
	QueryProvenance(ctx context.Context, tenantID string, q ProvenanceQuery) ([]*ProvenanceMetadata, error)
}

// TripleWithProvenance pairs a triple with its tracker record, which is nil
// when the tracker has none (or no tracker is configured).
type TripleWithProvenance struct {
	Triple     *Triple
	Provenance *ProvenanceMetadata
}

// ProvenanceStore decorates a TripleStore with best-effort provenance
// recording. The store operation always runs first; the tracker is called
// only when it succeeded, and tracker failures are logged and swallowed —
// provenance is an auxiliary index, not a transactional partner. A nil
// tracker is a valid no-op configuration.
type ProvenanceStore struct {
	store   TripleStore
	tracker ProvenanceTracker
	logger  *slog.Logger
}

// NewProvenanceStore wraps a store with an optional tracker.
func NewProvenanceStore(s TripleStore, tracker ProvenanceTracker, logger *slog.Logger) *ProvenanceStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProvenanceStore{store: s, tracker: tracker, logger: logger}
}

// Store exposes the wrapped store for operations without provenance.
func (p *ProvenanceStore) Store() TripleStore { return p.store }

// AddTripleWithProvenance inserts the triple and records its provenance.
func (p *ProvenanceStore) AddTripleWithProvenance(ctx context.Context, tenantID string, t *Triple) error {
	if err := p.store.AddTriple(ctx, tenantID, t); err != nil {
		return err
	}
	p.record(ctx, tenantID, t, "add")
	return nil
}

// UpdateTripleWithProvenance updates the triple and refreshes its provenance.
func (p *ProvenanceStore) UpdateTripleWithProvenance(ctx context.Context, tenantID string, t *Triple) error {
	if err := p.store.UpdateTriple(ctx, tenantID, t); err != nil {
		return err
	}
	if p.tracker == nil {
		return nil
	}
	meta := &ProvenanceMetadata{
		ElementID:        t.ID,
		ElementType:      ElementTypeTriple,
		TenantID:         tenantID,
		SourceDocumentID: t.SourceDocumentID,
		Confidence:       t.ConfidenceScore,
		IsVerified:       t.IsVerified,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := p.tracker.UpdateProvenance(ctx, tenantID, meta); err != nil {
		p.logger.WarnContext(ctx, "provenance update failed",
			slog.String("tenant_id", tenantID),
			slog.String("triple_id", t.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// RemoveTripleWithProvenance removes the triple and deletes its provenance.
func (p *ProvenanceStore) RemoveTripleWithProvenance(ctx context.Context, tenantID, id string) error {
	if err := p.store.RemoveTriple(ctx, tenantID, id); err != nil {
		return err
	}
	if p.tracker == nil {
		return nil
	}
	if err := p.tracker.DeleteProvenance(ctx, tenantID, id, ElementTypeTriple); err != nil {
		p.logger.WarnContext(ctx, "provenance delete failed",
			slog.String("tenant_id", tenantID),
			slog.String("triple_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// GetTriplesWithProvenance queries current state and attaches each triple's
// tracker record. Lookup failures leave Provenance nil.
func (p *ProvenanceStore) GetTriplesWithProvenance(ctx context.Context, tenantID string, q TripleQuery) ([]*TripleWithProvenance, error) {
	res, err := p.store.Query(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}

	out := make([]*TripleWithProvenance, 0, len(res.Triples))
	for _, t := range res.Triples {
		twp := &TripleWithProvenance{Triple: t}
		if p.tracker != nil {
			meta, err := p.tracker.GetProvenance(ctx, tenantID, t.ID, ElementTypeTriple)
			if err != nil {
				p.logger.WarnContext(ctx, "provenance lookup failed",
					slog.String("tenant_id", tenantID),
					slog.String("triple_id", t.ID),
					slog.String("error", err.Error()),
				)
			} else {
				twp.Provenance = meta
			}
		}
		out = append(out, twp)
	}
	return out, nil
}

// VerifyTriple marks the triple verified in the store and mirrors the
// verification to the tracker.
func (p *ProvenanceStore) VerifyTriple(ctx context.Context, tenantID, id, verifiedBy, justification string) error {
	if err := p.store.VerifyTriple(ctx, tenantID, id, verifiedBy); err != nil {
		return err
	}
	if p.tracker == nil {
		return nil
	}
	if err := p.tracker.VerifyElement(ctx, tenantID, id, ElementTypeTriple, verifiedBy, justification); err != nil {
		p.logger.WarnContext(ctx, "provenance verification failed",
			slog.String("tenant_id", tenantID),
			slog.String("triple_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// GetTripleProvenanceLineage returns the tracker's ancestry chain for a
// triple, or nil when no tracker is configured.
func (p *ProvenanceStore) GetTripleProvenanceLineage(ctx context.Context, tenantID, id string, maxDepth int) (*ProvenanceLineage, error) {
	if p.tracker == nil {
		return nil, nil
	}
	return p.tracker.GetProvenanceLineage(ctx, tenantID, id, ElementTypeTriple, maxDepth)
}

// QueryTriplesByProvenance asks the tracker for matching records and resolves
// them against current state. Records whose triple no longer exists are
// skipped.
func (p *ProvenanceStore) QueryTriplesByProvenance(ctx context.Context, tenantID string, q ProvenanceQuery) ([]*TripleWithProvenance, error) {
	if p.tracker == nil {
		return nil, nil
	}
	records, err := p.tracker.QueryProvenance(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}

	out := make([]*TripleWithProvenance, 0, len(records))
	for _, rec := range records {
		t, err := p.store.GetTriple(ctx, tenantID, rec.ElementID)
		if err != nil {
			continue
		}
		out = append(out, &TripleWithProvenance{Triple: t, Provenance: rec})
	}
	return out, nil
}

func (p *ProvenanceStore) record(ctx context.Context, tenantID string, t *Triple, op string) {
	if p.tracker == nil {
		return
	}
	if err := p.tracker.RecordTripleProvenance(ctx, tenantID, t); err != nil {
		p.logger.WarnContext(ctx, "provenance recording failed",
			slog.String("tenant_id", tenantID),
			slog.String("triple_id", t.ID),
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}
