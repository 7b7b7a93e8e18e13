// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

// Package store defines the triple store's interfaces, data model, and
// backend factory. Backends live in subpackages (memory, filestore, sqlite)
// and register themselves with RegisterBackend from init().
//
// Tenant isolation is absolute: every operation is scoped to exactly one
// tenant partition. Reads against a tenant that has never been written
// return empty results, not errors; partitions are created lazily on first
// write. Not-found and validation failures are coded errors from pkg/errors,
// checkable with errors.IsNotFound and errors.IsInvalidInput.
package store

import "context"

// TripleStore is the authoritative current-state graph surface. When
// versioning is enabled every completed mutation is recorded in the paired
// VersionStore before the call returns.
type TripleStore interface {
	// AddTriple validates and inserts one triple, assigning its ID (when
	// empty), timestamps, and Version 1, and records a creation version.
	AddTriple(ctx context.Context, tenantID string, t *Triple) error

	// AddTriples inserts a batch with continue-on-error semantics: a failing
	// triple is logged and skipped, never aborting the batch. Returns the
	// number of successful inserts.
	AddTriples(ctx context.Context, tenantID string, ts []*Triple) (int, error)

	// AddRelationAsTriple maps a Relation onto a triple and inserts it.
	// graphURI overrides the store's default graph when non-empty.
	AddRelationAsTriple(ctx context.Context, tenantID string, rel *Relation, graphURI string) (*Triple, error)

	// AddEntityAttributesAsTriples expands every attribute of an entity into
	// one literal triple and inserts them with batch semantics; the returned
	// slice holds the triples that were inserted.
	AddEntityAttributesAsTriples(ctx context.Context, tenantID string, ent *Entity, graphURI string) ([]*Triple, error)

	// GetTriple returns the current state of one triple.
	GetTriple(ctx context.Context, tenantID, id string) (*Triple, error)

	// UpdateTriple replaces the stored fields of the triple with t's values,
	// incrementing Version by exactly 1. Records an update version when
	// subject, predicate, or object changed, otherwise a metadata_update.
	UpdateTriple(ctx context.Context, tenantID string, t *Triple) error

	// VerifyTriple marks a triple as manually verified and records a
	// verification version.
	VerifyTriple(ctx context.Context, tenantID, id, verifiedBy string) error

	// RemoveTriple deletes a triple from current state. The deletion version
	// is recorded before removal so history can always reconstruct the
	// pre-deletion values.
	RemoveTriple(ctx context.Context, tenantID, id string) error

	// Query filters the tenant's current-state triples and paginates the
	// result. There is no timeout on this path; it is bounded by Limit.
	Query(ctx context.Context, tenantID string, q TripleQuery) (*TripleQueryResult, error)

	// ExecuteSparql passes a raw query to the configured SparqlExecutor,
	// bounded by the configured query timeout. Stores without an executor
	// return an unsupported error.
	ExecuteSparql(ctx context.Context, tenantID, query string) (any, error)

	// CreateGraph registers a named graph in the tenant partition.
	CreateGraph(ctx context.Context, tenantID, graphURI string) error

	// RemoveGraph unregisters a named graph and removes all its triples,
	// recording a deletion version for each. Returns the number of triples
	// removed. Not atomic: a mid-cascade failure leaves earlier deletions
	// applied and is reported via the count.
	RemoveGraph(ctx context.Context, tenantID, graphURI string) (int, error)

	// Statistics aggregates counts for the tenant partition only.
	Statistics(ctx context.Context, tenantID string) (*StoreStatistics, error)

	Close() error
}

// VersionStore maintains the append-only version log and answers time-travel
// queries. Version-number assignment is linearizable per (tenantID, tripleID).
type VersionStore interface {
	// RecordVersion appends a snapshot of t with VersionNumber = max+1 for
	// that triple. Safe under concurrent calls for the same triple id.
	RecordVersion(ctx context.Context, tenantID string, t *Triple, change ChangeType, meta VersionMeta) (*TripleVersion, error)

	// GetVersionHistory returns versions most-recent-first, capped at
	// maxVersions (<= 0 means no cap).
	GetVersionHistory(ctx context.Context, tenantID, tripleID string, maxVersions int) ([]*TripleVersion, error)

	// GetVersion returns one exact version.
	GetVersion(ctx context.Context, tenantID, tripleID string, version int) (*TripleVersion, error)

	// GetVersionDiff compares two versions field by field, always in
	// from-to-to direction; a from > to request yields the backward
	// transition rather than being silently reordered.
	GetVersionDiff(ctx context.Context, tenantID, tripleID string, from, to int) (*TripleDiff, error)

	// QueryTemporal answers as-of, range, exact-version, and diff-only
	// queries. See TemporalQuery for shape resolution.
	QueryTemporal(ctx context.Context, tenantID string, q TemporalQuery) (*TemporalQueryResult, error)

	// CreateSnapshot records the current version pointer of every live
	// triple (optionally scoped to graphURIs) under name. A duplicate name
	// overwrites the prior snapshot; last write wins.
	CreateSnapshot(ctx context.Context, tenantID, name string, graphURIs []string) error

	// RestoreSnapshot rewrites the live table to match the snapshot. Each
	// triple whose state changes gets a new restoration version, so the
	// restore itself is undoable. Only triples present in the snapshot are
	// touched; triples created after the snapshot remain intact.
	RestoreSnapshot(ctx context.Context, tenantID, name string) error

	// RestoreVersion copies the target version's field values into a new
	// version at the top of the log and updates the live table. History is
	// never rewritten.
	RestoreVersion(ctx context.Context, tenantID, tripleID string, version int, meta VersionMeta) (*Triple, error)

	// Snapshots lists the tenant's snapshots by name.
	Snapshots(ctx context.Context, tenantID string) (map[string]SnapshotInfo, error)

	Close() error
}

// SparqlExecutor is the external query-engine collaborator behind
// ExecuteSparql. The result shape is opaque to this subsystem.
type SparqlExecutor interface {
	Execute(ctx context.Context, tenantID, query string) (any, error)
}
