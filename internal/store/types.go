// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import (
	"time"

	"github.com/tessella-dev/tessella/pkg/types"
)

// --- Triple types ---

// Triple is a single subject-predicate-object fact in a tenant's graph.
// ObjectID holds either an entity reference or, when IsLiteral is set, a
// literal value described by LiteralDataType and LanguageTag.
type Triple struct {
	ID               string
	TenantID         string
	SubjectID        string
	PredicateURI     string
	ObjectID         string
	IsLiteral        bool
	LiteralDataType  string
	LanguageTag      string
	GraphURI         string
	ConfidenceScore  float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SourceDocumentID string
	IsVerified       bool
	// Version starts at 1 and increases by exactly 1 per mutation. A restore
	// appends a new forward version; it never rewinds this counter.
	Version int
}

// Clone returns a deep copy. Backends hand out clones so concurrent readers
// never observe a partially written triple.
func (t *Triple) Clone() *Triple {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// ChangeType classifies why a version was recorded.
type ChangeType string

const (
	ChangeCreation       ChangeType = "creation"
	ChangeUpdate         ChangeType = "update"
	ChangeDeletion       ChangeType = "deletion"
	ChangeRestoration    ChangeType = "restoration"
	ChangeMetadataUpdate ChangeType = "metadata_update"
	ChangeVerification   ChangeType = "verification"
	ChangeGraphMigration ChangeType = "graph_migration"
	ChangeMerge          ChangeType = "merge"
	ChangeSplit          ChangeType = "split"
	ChangeCorrection     ChangeType = "correction"
)

// Valid reports whether the change type is one of the defined constants.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeCreation, ChangeUpdate, ChangeDeletion, ChangeRestoration,
		ChangeMetadataUpdate, ChangeVerification, ChangeGraphMigration,
		ChangeMerge, ChangeSplit, ChangeCorrection:
		return true
	}
	return false
}

// TripleVersion is an immutable snapshot of one triple's field values at the
// moment a mutation completed. For a given (TenantID, TripleID) the recorded
// VersionNumbers form a gapless ascending sequence starting at 1.
type TripleVersion struct {
	ID               string
	TripleID         string
	TenantID         string
	VersionNumber    int
	ChangeType       ChangeType
	ChangedByUserID  string
	ChangeComment    string
	SubjectID        string
	PredicateURI     string
	ObjectID         string
	IsLiteral        bool
	LiteralDataType  string
	LanguageTag      string
	GraphURI         string
	ConfidenceScore  float64
	SourceDocumentID string
	IsVerified       bool
	CreatedAt        time.Time
}

// Clone returns a deep copy.
func (v *TripleVersion) Clone() *TripleVersion {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// VersionMeta carries optional authorship metadata for a recorded version.
type VersionMeta struct {
	ChangedByUserID string
	ChangeComment   string
}

// --- Inbound collaborator DTOs ---

// Entity is the extraction pipeline's view of a named entity. The store only
// consumes it through AddEntityAttributesAsTriples.
type Entity struct {
	ID               string
	TenantID         string
	Name             string
	Type             string
	SourceDocumentID string
	ConfidenceScore  float64
	Attributes       types.Map
}

// Relation is the relation-mapping pipeline's view of a directed edge between
// two entities.
type Relation struct {
	ID               string
	TenantID         string
	SourceEntityID   string
	TargetEntityID   string
	Type             string
	SourceDocumentID string
	ConfidenceScore  float64
	Properties       types.Map
}

// --- Query types ---

// TripleQuery filters a tenant's current-state triples. Zero-valued fields
// are ignored; pointer fields distinguish "unset" from "filter on false".
type TripleQuery struct {
	SubjectID     string
	PredicateURI  string
	ObjectID      string
	GraphURI      string
	IsLiteral     *bool
	IsVerified    *bool
	MinConfidence float64
	MaxConfidence float64 // 0 means no upper bound
	CreatedAfter  time.Time
	CreatedBefore time.Time
	// Filter is an optional custom predicate applied after the field filters.
	Filter func(*Triple) bool
	Offset int
	Limit  int // 0 falls back to the store's DefaultQueryLimit
}

// TripleQueryResult is the paginated outcome of a Query call. TotalCount is
// the pre-pagination match count.
type TripleQueryResult struct {
	Triples    []*Triple
	TotalCount int
	Offset     int
	Limit      int
	HasMore    bool
}

// TemporalQuery describes a time-travel query. Exactly one of the four shapes
// applies, resolved in this order: VersionNumber > 0 selects exact versions;
// a non-zero AsOf reconstructs the graph state at that instant; a non-zero
// From/To returns all versions recorded in the range. DiffOnly switches the
// result to diffs (earliest-to-latest in scope per triple) instead of
// triple/version lists.
type TemporalQuery struct {
	AsOf          time.Time
	From          time.Time
	To            time.Time
	VersionNumber int
	DiffOnly      bool
	// IncludeDeleted keeps triples whose effective version is a deletion in
	// as-of results.
	IncludeDeleted bool
	// Optional scope filters.
	TripleID string
	GraphURI string
	Limit    int
}

// TemporalQueryResult carries whichever lists the query shape produces.
type TemporalQueryResult struct {
	// Triples holds reconstructed as-of state (as-of shape).
	Triples []*Triple
	// Versions holds raw version records (range and exact-version shapes).
	Versions []*TripleVersion
	// Diffs holds per-triple transitions (DiffOnly mode).
	Diffs      []*TripleDiff
	TotalCount int
}

// FieldChange is one changed field in a diff: the value before and after.
type FieldChange struct {
	Old types.Value
	New types.Value
}

// TripleDiff describes the transition between two versions of one triple.
// Direction is always FromVersion to ToVersion, even when FromVersion is the
// later one; callers asking for a backward diff get a backward transition.
type TripleDiff struct {
	TripleID    string
	TenantID    string
	FromVersion int
	ToVersion   int
	// Subject, Predicate, and Object are nil when that core field is
	// unchanged.
	Subject   *FieldChange
	Predicate *FieldChange
	Object    *FieldChange
	// Changed maps non-core field names (graph_uri, confidence_score, ...)
	// to their transitions.
	Changed map[string]FieldChange
	// IsCoreSemantic is true iff subject, predicate, or object differs.
	IsCoreSemantic bool
}

// --- Snapshot and statistics types ---

// SnapshotInfo describes a named snapshot: a recorded set of
// (TripleID, VersionNumber) pointers.
type SnapshotInfo struct {
	Name        string
	TenantID    string
	CreatedAt   time.Time
	TripleCount int
	// GraphURIs is the graph scope the snapshot was created with; empty
	// means the whole tenant partition.
	GraphURIs []string
}

// StoreStatistics aggregates counts for one tenant partition.
type StoreStatistics struct {
	TotalTriples      int
	VerifiedTriples   int
	LiteralTriples    int
	GraphCount        int
	TriplesByGraph    map[string]int
	AverageConfidence float64
}
