// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package filestore

import (
	"context"
	"log/slog"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/internal/store/memory"
	"github.com/tessella-dev/tessella/pkg/errors"
)

// Store implements store.TripleStore by delegating to the memory backend and
// flushing the state file after every successful mutation.
type Store struct {
	inner *memory.Store
	p     *persister
	log   *slog.Logger
}

// Versions implements store.VersionStore the same way.
type Versions struct {
	inner *memory.Versions
	owner *Store
}

var (
	_ store.TripleStore  = (*Store)(nil)
	_ store.VersionStore = (*Versions)(nil)
)

// Open loads (or creates) the state file named by opts.ConnectionString.
func Open(opts store.Options) (*Store, *Versions, error) {
	if opts.ConnectionString == "" {
		return nil, nil, errors.New(errors.CodeConfigInvalidValue, "file backend needs a state file path")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	p := &persister{path: opts.ConnectionString}
	st, err := p.load()
	if err != nil {
		return nil, nil, err
	}
	ms, mv, err := memory.NewFromState(opts, st)
	if err != nil {
		return nil, nil, err
	}

	s := &Store{inner: ms, p: p, log: opts.Logger}
	return s, &Versions{inner: mv, owner: s}, nil
}

// persist flushes the full state. Persistence failures after an applied
// mutation are returned to the caller; the in-memory state stays ahead of
// the file until the next successful flush.
func (s *Store) persist(ctx context.Context) error {
	if err := s.p.flush(s.inner.ExportState()); err != nil {
		s.log.ErrorContext(ctx, "state flush failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *Store) AddTriple(ctx context.Context, tenantID string, t *store.Triple) error {
	if err := s.inner.AddTriple(ctx, tenantID, t); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) AddTriples(ctx context.Context, tenantID string, ts []*store.Triple) (int, error) {
	added, err := s.inner.AddTriples(ctx, tenantID, ts)
	if err != nil {
		return added, err
	}
	if added > 0 {
		if err := s.persist(ctx); err != nil {
			return added, err
		}
	}
	return added, nil
}

func (s *Store) AddRelationAsTriple(ctx context.Context, tenantID string, rel *store.Relation, graphURI string) (*store.Triple, error) {
	t, err := s.inner.AddRelationAsTriple(ctx, tenantID, rel, graphURI)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) AddEntityAttributesAsTriples(ctx context.Context, tenantID string, ent *store.Entity, graphURI string) ([]*store.Triple, error) {
	ts, err := s.inner.AddEntityAttributesAsTriples(ctx, tenantID, ent, graphURI)
	if err != nil {
		return nil, err
	}
	if len(ts) > 0 {
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (s *Store) GetTriple(ctx context.Context, tenantID, id string) (*store.Triple, error) {
	return s.inner.GetTriple(ctx, tenantID, id)
}

func (s *Store) UpdateTriple(ctx context.Context, tenantID string, t *store.Triple) error {
	if err := s.inner.UpdateTriple(ctx, tenantID, t); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) VerifyTriple(ctx context.Context, tenantID, id, verifiedBy string) error {
	if err := s.inner.VerifyTriple(ctx, tenantID, id, verifiedBy); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) RemoveTriple(ctx context.Context, tenantID, id string) error {
	if err := s.inner.RemoveTriple(ctx, tenantID, id); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) Query(ctx context.Context, tenantID string, q store.TripleQuery) (*store.TripleQueryResult, error) {
	return s.inner.Query(ctx, tenantID, q)
}

func (s *Store) ExecuteSparql(ctx context.Context, tenantID, query string) (any, error) {
	return s.inner.ExecuteSparql(ctx, tenantID, query)
}

func (s *Store) CreateGraph(ctx context.Context, tenantID, graphURI string) error {
	if err := s.inner.CreateGraph(ctx, tenantID, graphURI); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) RemoveGraph(ctx context.Context, tenantID, graphURI string) (int, error) {
	removed, err := s.inner.RemoveGraph(ctx, tenantID, graphURI)
	if err != nil {
		return removed, err
	}
	if err := s.persist(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *Store) Statistics(ctx context.Context, tenantID string) (*store.StoreStatistics, error) {
	return s.inner.Statistics(ctx, tenantID)
}

// Close flushes one final time before shutting the engine down.
func (s *Store) Close() error {
	flushErr := s.p.flush(s.inner.ExportState())
	closeErr := s.inner.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (v *Versions) RecordVersion(ctx context.Context, tenantID string, t *store.Triple, change store.ChangeType, meta store.VersionMeta) (*store.TripleVersion, error) {
	rec, err := v.inner.RecordVersion(ctx, tenantID, t, change, meta)
	if err != nil {
		return nil, err
	}
	if err := v.owner.persist(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (v *Versions) GetVersionHistory(ctx context.Context, tenantID, tripleID string, maxVersions int) ([]*store.TripleVersion, error) {
	return v.inner.GetVersionHistory(ctx, tenantID, tripleID, maxVersions)
}

func (v *Versions) GetVersion(ctx context.Context, tenantID, tripleID string, version int) (*store.TripleVersion, error) {
	return v.inner.GetVersion(ctx, tenantID, tripleID, version)
}

func (v *Versions) GetVersionDiff(ctx context.Context, tenantID, tripleID string, from, to int) (*store.TripleDiff, error) {
	return v.inner.GetVersionDiff(ctx, tenantID, tripleID, from, to)
}

func (v *Versions) QueryTemporal(ctx context.Context, tenantID string, q store.TemporalQuery) (*store.TemporalQueryResult, error) {
	return v.inner.QueryTemporal(ctx, tenantID, q)
}

func (v *Versions) CreateSnapshot(ctx context.Context, tenantID, name string, graphURIs []string) error {
	if err := v.inner.CreateSnapshot(ctx, tenantID, name, graphURIs); err != nil {
		return err
	}
	return v.owner.persist(ctx)
}

func (v *Versions) RestoreSnapshot(ctx context.Context, tenantID, name string) error {
	if err := v.inner.RestoreSnapshot(ctx, tenantID, name); err != nil {
		return err
	}
	return v.owner.persist(ctx)
}

func (v *Versions) RestoreVersion(ctx context.Context, tenantID, tripleID string, version int, meta store.VersionMeta) (*store.Triple, error) {
	t, err := v.inner.RestoreVersion(ctx, tenantID, tripleID, version, meta)
	if err != nil {
		return nil, err
	}
	if err := v.owner.persist(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (v *Versions) Snapshots(ctx context.Context, tenantID string) (map[string]store.SnapshotInfo, error) {
	return v.inner.Snapshots(ctx, tenantID)
}

func (v *Versions) Close() error {
	return v.inner.Close()
}
