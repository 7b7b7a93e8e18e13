// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

// Package memory implements the in-memory triple store backend. It is the
// reference implementation for the store's concurrency contract: a flat live
// table keyed by (tenant, triple id), a per-key mutex serializing mutations
// of the same triple, and deep copies on every ingress and egress so readers
// never observe a partially written triple.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/pkg/errors"
)

type tripleKey struct {
	tenant string
	id     string
}

type graphKey struct {
	tenant string
	uri    string
}

type snapKey struct {
	tenant string
	name   string
}

type snapshot struct {
	info store.SnapshotInfo
	// pointers maps triple id to the version number captured for it.
	pointers map[string]int
}

// engine holds the shared state behind both the Store and Versions views.
// Lock order: per-triple mutex, then mu, then vmu, then smu.
type engine struct {
	opts store.Options
	log  *slog.Logger

	mu      sync.RWMutex
	triples map[tripleKey]*store.Triple
	graphs  map[graphKey]time.Time

	vmu      sync.RWMutex
	versions map[tripleKey][]*store.TripleVersion

	smu       sync.RWMutex
	snapshots map[snapKey]*snapshot

	lockMu sync.Mutex
	locks  map[tripleKey]*sync.Mutex

	closedMu sync.RWMutex
	closed   bool
}

func newEngine(opts store.Options) *engine {
	return &engine{
		opts:      opts,
		log:       opts.Logger,
		triples:   map[tripleKey]*store.Triple{},
		graphs:    map[graphKey]time.Time{},
		versions:  map[tripleKey][]*store.TripleVersion{},
		snapshots: map[snapKey]*snapshot{},
		locks:     map[tripleKey]*sync.Mutex{},
	}
}

// lockFor returns the mutex serializing mutations of one triple. Mutexes are
// created lazily and retained for the engine's lifetime.
func (e *engine) lockFor(key tripleKey) *sync.Mutex {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	return m
}

func (e *engine) checkOpen() error {
	e.closedMu.RLock()
	defer e.closedMu.RUnlock()
	if e.closed {
		return errors.New(errors.CodeStoreClosed, "store is closed")
	}
	return nil
}

func (e *engine) close() {
	e.closedMu.Lock()
	e.closed = true
	e.closedMu.Unlock()
}

// begin runs the shared preamble for every operation.
func (e *engine) begin(ctx context.Context, tenantID string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeInternalFailure, "context done")
	}
	return store.ValidateTenantID(tenantID)
}

// recordVersionLocked appends a version for t with the next gapless number.
// Caller must hold the per-triple mutex for t's key.
func (e *engine) recordVersionLocked(key tripleKey, t *store.Triple, change store.ChangeType, meta store.VersionMeta) *store.TripleVersion {
	v := store.VersionFromTriple(t, change, meta)
	v.ID = uuid.NewString()
	v.CreatedAt = time.Now()

	e.vmu.Lock()
	v.VersionNumber = len(e.versions[key]) + 1
	e.versions[key] = append(e.versions[key], v)
	e.vmu.Unlock()
	return v
}

// Store implements store.TripleStore over the shared engine.
type Store struct {
	e *engine
}

var _ store.TripleStore = (*Store)(nil)

// New creates a memory-backed triple store and its paired version store.
func New(opts store.Options) (*Store, *Versions, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := newEngine(opts)
	return &Store{e: e}, &Versions{e: e}, nil
}

func (s *Store) AddTriple(ctx context.Context, tenantID string, t *store.Triple) error {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return err
	}
	if t == nil {
		return errors.New(errors.CodeStoreTripleInvalid, "triple is nil")
	}
	if s.e.opts.ValidateTriples {
		if err := store.ValidateTriple(t, s.e.opts.MinConfidenceThreshold); err != nil {
			return err
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.TenantID = tenantID
	if t.GraphURI == "" {
		t.GraphURI = s.e.opts.DefaultGraphURI
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1

	key := tripleKey{tenant: tenantID, id: t.ID}
	lock := s.e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	s.e.mu.Lock()
	if _, exists := s.e.triples[key]; exists {
		s.e.mu.Unlock()
		return errors.New(errors.CodeStoreTripleConflict, "triple id already exists",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(t.ID))
	}
	s.e.triples[key] = t.Clone()
	gk := graphKey{tenant: tenantID, uri: t.GraphURI}
	if _, ok := s.e.graphs[gk]; !ok {
		s.e.graphs[gk] = now
	}
	s.e.mu.Unlock()

	if s.e.opts.EnableVersioning {
		s.e.recordVersionLocked(key, t, store.ChangeCreation, store.VersionMeta{})
	}
	return nil
}

func (s *Store) AddTriples(ctx context.Context, tenantID string, ts []*store.Triple) (int, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return 0, err
	}

	added := 0
	for i, t := range ts {
		if err := s.AddTriple(ctx, tenantID, t); err != nil {
			s.e.log.WarnContext(ctx, "batch insert: skipping triple",
				slog.String("tenant_id", tenantID),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		added++
	}
	return added, nil
}

func (s *Store) AddRelationAsTriple(ctx context.Context, tenantID string, rel *store.Relation, graphURI string) (*store.Triple, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if graphURI == "" {
		graphURI = s.e.opts.DefaultGraphURI
	}
	t, err := store.TripleFromRelation(rel, graphURI)
	if err != nil {
		return nil, err
	}
	if err := s.AddTriple(ctx, tenantID, t); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func (s *Store) AddEntityAttributesAsTriples(ctx context.Context, tenantID string, ent *store.Entity, graphURI string) ([]*store.Triple, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if graphURI == "" {
		graphURI = s.e.opts.DefaultGraphURI
	}
	candidates, err := store.TriplesFromEntityAttributes(ent, graphURI)
	if err != nil {
		return nil, err
	}

	inserted := make([]*store.Triple, 0, len(candidates))
	for _, t := range candidates {
		if err := s.AddTriple(ctx, tenantID, t); err != nil {
			s.e.log.WarnContext(ctx, "entity expansion: skipping attribute triple",
				slog.String("tenant_id", tenantID),
				slog.String("predicate", t.PredicateURI),
				slog.String("error", err.Error()),
			)
			continue
		}
		inserted = append(inserted, t.Clone())
	}
	return inserted, nil
}

func (s *Store) GetTriple(ctx context.Context, tenantID, id string) (*store.Triple, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	s.e.mu.RLock()
	t, ok := s.e.triples[tripleKey{tenant: tenantID, id: id}]
	s.e.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(id))
	}
	return t.Clone(), nil
}

func (s *Store) UpdateTriple(ctx context.Context, tenantID string, t *store.Triple) error {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return err
	}
	if t == nil || t.ID == "" {
		return errors.New(errors.CodeStoreTripleInvalid, "triple has no id")
	}
	if s.e.opts.ValidateTriples {
		if err := store.ValidateTriple(t, s.e.opts.MinConfidenceThreshold); err != nil {
			return err
		}
	}

	key := tripleKey{tenant: tenantID, id: t.ID}
	lock := s.e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	s.e.mu.Lock()
	current, ok := s.e.triples[key]
	if !ok {
		s.e.mu.Unlock()
		return errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(t.ID))
	}

	coreChanged := current.SubjectID != t.SubjectID ||
		current.PredicateURI != t.PredicateURI ||
		current.ObjectID != t.ObjectID

	next := t.Clone()
	next.TenantID = tenantID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now()
	next.Version = current.Version + 1
	if next.GraphURI == "" {
		next.GraphURI = current.GraphURI
	}
	s.e.triples[key] = next
	gk := graphKey{tenant: tenantID, uri: next.GraphURI}
	if _, okg := s.e.graphs[gk]; !okg {
		s.e.graphs[gk] = next.UpdatedAt
	}
	s.e.mu.Unlock()

	// Reflect the assigned version back to the caller.
	t.Version = next.Version
	t.CreatedAt = next.CreatedAt
	t.UpdatedAt = next.UpdatedAt

	if s.e.opts.EnableVersioning {
		change := store.ChangeMetadataUpdate
		switch {
		case coreChanged:
			change = store.ChangeUpdate
		case next.GraphURI != current.GraphURI:
			change = store.ChangeGraphMigration
		}
		s.e.recordVersionLocked(key, next, change, store.VersionMeta{})
	}
	return nil
}

func (s *Store) VerifyTriple(ctx context.Context, tenantID, id, verifiedBy string) error {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return err
	}

	key := tripleKey{tenant: tenantID, id: id}
	lock := s.e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	s.e.mu.Lock()
	current, ok := s.e.triples[key]
	if !ok {
		s.e.mu.Unlock()
		return errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(id))
	}
	next := current.Clone()
	next.IsVerified = true
	next.UpdatedAt = time.Now()
	next.Version = current.Version + 1
	s.e.triples[key] = next
	s.e.mu.Unlock()

	if s.e.opts.EnableVersioning {
		s.e.recordVersionLocked(key, next, store.ChangeVerification,
			store.VersionMeta{ChangedByUserID: verifiedBy})
	}
	return nil
}

func (s *Store) RemoveTriple(ctx context.Context, tenantID, id string) error {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return err
	}

	key := tripleKey{tenant: tenantID, id: id}
	lock := s.e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	s.e.mu.Lock()
	current, ok := s.e.triples[key]
	if !ok {
		s.e.mu.Unlock()
		return errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(id))
	}
	s.e.mu.Unlock()

	// The deletion version is recorded before removal so the final history
	// entry still carries the pre-deletion field values.
	if s.e.opts.EnableVersioning {
		final := current.Clone()
		final.Version = current.Version + 1
		s.e.recordVersionLocked(key, final, store.ChangeDeletion, store.VersionMeta{})
	}

	s.e.mu.Lock()
	delete(s.e.triples, key)
	s.e.mu.Unlock()
	return nil
}

func (s *Store) Query(ctx context.Context, tenantID string, q store.TripleQuery) (*store.TripleQueryResult, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	s.e.mu.RLock()
	var matched []*store.Triple
	for key, t := range s.e.triples {
		if key.tenant != tenantID {
			continue
		}
		if matchTriple(t, q) {
			matched = append(matched, t.Clone())
		}
	}
	s.e.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = s.e.opts.DefaultQueryLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &store.TripleQueryResult{
		Triples:    matched[offset:end],
		TotalCount: total,
		Offset:     offset,
		Limit:      limit,
		HasMore:    end < total,
	}, nil
}

func matchTriple(t *store.Triple, q store.TripleQuery) bool {
	if q.SubjectID != "" && t.SubjectID != q.SubjectID {
		return false
	}
	if q.PredicateURI != "" && t.PredicateURI != q.PredicateURI {
		return false
	}
	if q.ObjectID != "" && t.ObjectID != q.ObjectID {
		return false
	}
	if q.GraphURI != "" && t.GraphURI != q.GraphURI {
		return false
	}
	if q.IsLiteral != nil && t.IsLiteral != *q.IsLiteral {
		return false
	}
	if q.IsVerified != nil && t.IsVerified != *q.IsVerified {
		return false
	}
	if q.MinConfidence > 0 && t.ConfidenceScore < q.MinConfidence {
		return false
	}
	if q.MaxConfidence > 0 && t.ConfidenceScore > q.MaxConfidence {
		return false
	}
	if !q.CreatedAfter.IsZero() && t.CreatedAt.Before(q.CreatedAfter) {
		return false
	}
	if !q.CreatedBefore.IsZero() && t.CreatedAt.After(q.CreatedBefore) {
		return false
	}
	if q.Filter != nil && !q.Filter(t) {
		return false
	}
	return true
}

func (s *Store) ExecuteSparql(ctx context.Context, tenantID, query string) (any, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if s.e.opts.Sparql == nil {
		return nil, errors.New(errors.CodeStoreSparqlUnsupported, "no sparql executor configured")
	}

	timeout := time.Duration(s.e.opts.QueryTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.e.opts.Sparql.Execute(ctx, tenantID, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.CodeStoreSparqlTimeout, "sparql query timed out")
		}
		return nil, errors.Wrap(err, errors.CodeStoreSparqlFailure, "sparql query failed")
	}
	return res, nil
}

func (s *Store) CreateGraph(ctx context.Context, tenantID, graphURI string) error {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return err
	}
	if graphURI == "" {
		return errors.New(errors.CodeStoreQueryInvalid, "graph uri is empty")
	}

	gk := graphKey{tenant: tenantID, uri: graphURI}
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	if _, ok := s.e.graphs[gk]; ok {
		return errors.New(errors.CodeStoreGraphConflict, "graph already exists",
			errors.FieldTenantID(tenantID), errors.FieldGraphURI(graphURI))
	}
	s.e.graphs[gk] = time.Now()
	return nil
}

func (s *Store) RemoveGraph(ctx context.Context, tenantID, graphURI string) (int, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return 0, err
	}

	gk := graphKey{tenant: tenantID, uri: graphURI}
	s.e.mu.RLock()
	_, registered := s.e.graphs[gk]
	var ids []string
	for key, t := range s.e.triples {
		if key.tenant == tenantID && t.GraphURI == graphURI {
			ids = append(ids, key.id)
		}
	}
	s.e.mu.RUnlock()

	if !registered && len(ids) == 0 {
		return 0, errors.New(errors.CodeStoreGraphNotFound, "graph not found",
			errors.FieldTenantID(tenantID), errors.FieldGraphURI(graphURI))
	}

	removed := 0
	for _, id := range ids {
		if err := s.RemoveTriple(ctx, tenantID, id); err != nil {
			s.e.log.WarnContext(ctx, "graph removal: skipping triple",
				slog.String("tenant_id", tenantID),
				slog.String("graph_uri", graphURI),
				slog.String("triple_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}

	s.e.mu.Lock()
	delete(s.e.graphs, gk)
	s.e.mu.Unlock()
	return removed, nil
}

func (s *Store) Statistics(ctx context.Context, tenantID string) (*store.StoreStatistics, error) {
	if err := s.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	stats := &store.StoreStatistics{TriplesByGraph: map[string]int{}}
	var confidenceSum float64

	s.e.mu.RLock()
	for key, t := range s.e.triples {
		if key.tenant != tenantID {
			continue
		}
		stats.TotalTriples++
		stats.TriplesByGraph[t.GraphURI]++
		if t.IsVerified {
			stats.VerifiedTriples++
		}
		if t.IsLiteral {
			stats.LiteralTriples++
		}
		confidenceSum += t.ConfidenceScore
	}
	for gk := range s.e.graphs {
		if gk.tenant != tenantID {
			continue
		}
		if _, ok := stats.TriplesByGraph[gk.uri]; !ok {
			stats.TriplesByGraph[gk.uri] = 0
		}
	}
	s.e.mu.RUnlock()

	stats.GraphCount = len(stats.TriplesByGraph)
	if stats.TotalTriples > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.TotalTriples)
	}
	return stats, nil
}

func (s *Store) Close() error {
	s.e.close()
	return nil
}
