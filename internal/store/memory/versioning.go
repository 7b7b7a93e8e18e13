// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/pkg/errors"
)

// Versions implements store.VersionStore over the shared engine. It owns the
// append-only version log and the named snapshots; it touches the live table
// only during restore operations.
type Versions struct {
	e *engine
}

var _ store.VersionStore = (*Versions)(nil)

func (v *Versions) RecordVersion(ctx context.Context, tenantID string, t *store.Triple, change store.ChangeType, meta store.VersionMeta) (*store.TripleVersion, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if t == nil || t.ID == "" {
		return nil, errors.New(errors.CodeVersionInvalid, "triple has no id")
	}
	if !change.Valid() {
		return nil, errors.New(errors.CodeVersionInvalid, "unknown change type",
			errors.Field("change_type", string(change)))
	}

	key := tripleKey{tenant: tenantID, id: t.ID}
	lock := v.e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	rec := v.e.recordVersionLocked(key, t, change, meta)
	return rec.Clone(), nil
}

func (v *Versions) GetVersionHistory(ctx context.Context, tenantID, tripleID string, maxVersions int) ([]*store.TripleVersion, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	key := tripleKey{tenant: tenantID, id: tripleID}
	v.e.vmu.RLock()
	log := v.e.versions[key]
	out := make([]*store.TripleVersion, 0, len(log))
	// Stored ascending; returned most-recent-first.
	for i := len(log) - 1; i >= 0; i-- {
		out = append(out, log[i].Clone())
		if maxVersions > 0 && len(out) >= maxVersions {
			break
		}
	}
	v.e.vmu.RUnlock()
	return out, nil
}

func (v *Versions) GetVersion(ctx context.Context, tenantID, tripleID string, version int) (*store.TripleVersion, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	rec, err := v.versionAt(tenantID, tripleID, version)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// versionAt fetches one version record without cloning.
func (v *Versions) versionAt(tenantID, tripleID string, version int) (*store.TripleVersion, error) {
	v.e.vmu.RLock()
	defer v.e.vmu.RUnlock()

	log := v.e.versions[tripleKey{tenant: tenantID, id: tripleID}]
	if version < 1 || version > len(log) {
		return nil, errors.New(errors.CodeVersionNotFound, "version not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(tripleID), errors.FieldVersion(version))
	}
	return log[version-1], nil
}

func (v *Versions) GetVersionDiff(ctx context.Context, tenantID, tripleID string, from, to int) (*store.TripleDiff, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	fromRec, err := v.versionAt(tenantID, tripleID, from)
	if err != nil {
		return nil, err
	}
	toRec, err := v.versionAt(tenantID, tripleID, to)
	if err != nil {
		return nil, err
	}
	return store.DiffVersions(fromRec, toRec), nil
}

func (v *Versions) QueryTemporal(ctx context.Context, tenantID string, q store.TemporalQuery) (*store.TemporalQueryResult, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	// Snapshot the per-triple logs in scope so the shared collector runs
	// without holding the log lock.
	v.e.vmu.RLock()
	logs := map[string][]*store.TripleVersion{}
	for key, log := range v.e.versions {
		if key.tenant != tenantID {
			continue
		}
		if q.TripleID != "" && key.id != q.TripleID {
			continue
		}
		cp := make([]*store.TripleVersion, len(log))
		copy(cp, log)
		logs[key.id] = cp
	}
	v.e.vmu.RUnlock()

	return store.CollectTemporal(logs, q)
}

func (v *Versions) CreateSnapshot(ctx context.Context, tenantID, name string, graphURIs []string) error {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return err
	}
	if name == "" {
		return errors.New(errors.CodeSnapshotInvalid, "snapshot name is empty")
	}

	graphScope := map[string]bool{}
	for _, g := range graphURIs {
		graphScope[g] = true
	}

	pointers := map[string]int{}
	v.e.mu.RLock()
	for key, t := range v.e.triples {
		if key.tenant != tenantID {
			continue
		}
		if len(graphScope) > 0 && !graphScope[t.GraphURI] {
			continue
		}
		pointers[key.id] = t.Version
	}
	v.e.mu.RUnlock()

	sk := snapKey{tenant: tenantID, name: name}
	snap := &snapshot{
		info: store.SnapshotInfo{
			Name:        name,
			TenantID:    tenantID,
			CreatedAt:   time.Now(),
			TripleCount: len(pointers),
			GraphURIs:   append([]string(nil), graphURIs...),
		},
		pointers: pointers,
	}

	v.e.smu.Lock()
	if _, exists := v.e.snapshots[sk]; exists {
		// Last write wins on duplicate names; an overwrite is deliberate
		// policy, so it is logged rather than rejected.
		v.e.log.WarnContext(ctx, "overwriting existing snapshot",
			slog.String("tenant_id", tenantID),
			slog.String("snapshot", name),
		)
	}
	v.e.snapshots[sk] = snap
	v.e.smu.Unlock()
	return nil
}

func (v *Versions) RestoreSnapshot(ctx context.Context, tenantID, name string) error {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return err
	}

	v.e.smu.RLock()
	snap, ok := v.e.snapshots[snapKey{tenant: tenantID, name: name}]
	v.e.smu.RUnlock()
	if !ok {
		return errors.New(errors.CodeSnapshotNotFound, "snapshot not found",
			errors.FieldTenantID(tenantID), errors.FieldSnapshot(name))
	}

	ids := make([]string, 0, len(snap.pointers))
	for id := range snap.pointers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	comment := fmt.Sprintf("restored from snapshot %q", name)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeInternalFailure, "context done mid-restore")
		}
		if _, err := v.restoreTo(tenantID, id, snap.pointers[id], store.VersionMeta{ChangeComment: comment}, true); err != nil {
			v.e.log.WarnContext(ctx, "snapshot restore: skipping triple",
				slog.String("tenant_id", tenantID),
				slog.String("snapshot", name),
				slog.String("triple_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (v *Versions) RestoreVersion(ctx context.Context, tenantID, tripleID string, version int, meta store.VersionMeta) (*store.Triple, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	return v.restoreTo(tenantID, tripleID, version, meta, false)
}

// restoreTo copies a target version's field values into a new version at the
// top of the log and rewrites the live entry. With skipNoop set (snapshot
// restore), a triple whose live state already matches the target records
// nothing.
func (v *Versions) restoreTo(tenantID, tripleID string, version int, meta store.VersionMeta, skipNoop bool) (*store.Triple, error) {
	key := tripleKey{tenant: tenantID, id: tripleID}
	lock := v.e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	target, err := v.versionAt(tenantID, tripleID, version)
	if err != nil {
		return nil, err
	}

	v.e.mu.Lock()
	current := v.e.triples[key]

	restored := store.TripleFromVersion(target)
	restored.UpdatedAt = time.Now()
	// The restoration lands at the top of the log regardless of whether the
	// triple is live or was deleted after the target version; in the deleted
	// case this brings it back into the active cycle.
	v.e.vmu.RLock()
	restored.Version = len(v.e.versions[key]) + 1
	v.e.vmu.RUnlock()
	if current != nil {
		restored.CreatedAt = current.CreatedAt
		if skipNoop && tripleStateEqual(current, restored) {
			v.e.mu.Unlock()
			return current.Clone(), nil
		}
	}

	v.e.triples[key] = restored.Clone()
	gk := graphKey{tenant: tenantID, uri: restored.GraphURI}
	if _, ok := v.e.graphs[gk]; !ok {
		v.e.graphs[gk] = restored.UpdatedAt
	}
	v.e.mu.Unlock()

	v.e.recordVersionLocked(key, restored, store.ChangeRestoration, meta)
	return restored.Clone(), nil
}

// tripleStateEqual compares the restorable field values, ignoring Version and
// timestamps.
func tripleStateEqual(a, b *store.Triple) bool {
	return a.SubjectID == b.SubjectID &&
		a.PredicateURI == b.PredicateURI &&
		a.ObjectID == b.ObjectID &&
		a.IsLiteral == b.IsLiteral &&
		a.LiteralDataType == b.LiteralDataType &&
		a.LanguageTag == b.LanguageTag &&
		a.GraphURI == b.GraphURI &&
		a.ConfidenceScore == b.ConfidenceScore &&
		a.SourceDocumentID == b.SourceDocumentID &&
		a.IsVerified == b.IsVerified
}

func (v *Versions) Snapshots(ctx context.Context, tenantID string) (map[string]store.SnapshotInfo, error) {
	if err := v.e.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	out := map[string]store.SnapshotInfo{}
	v.e.smu.RLock()
	for sk, snap := range v.e.snapshots {
		if sk.tenant != tenantID {
			continue
		}
		out[sk.name] = snap.info
	}
	v.e.smu.RUnlock()
	return out, nil
}

func (v *Versions) Close() error {
	v.e.close()
	return nil
}
