// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/pkg/errors"
)

// Versions implements store.VersionStore over the shared connection. It owns
// triple_versions and snapshots; it writes the triples table only during
// restore operations.
type Versions struct {
	c *conn
}

var _ store.VersionStore = (*Versions)(nil)

const versionColumns = `id, tenant_id, triple_id, version_number, change_type,
changed_by_user_id, change_comment, subject_id, predicate_uri, object_id,
is_literal, literal_data_type, language_tag, graph_uri, confidence_score,
source_document_id, is_verified, created_at`

func scanVersion(row rowScanner) (*store.TripleVersion, error) {
	var rec store.TripleVersion
	var changeType string
	var isLiteral, isVerified int
	var createdAt string
	err := row.Scan(&rec.ID, &rec.TenantID, &rec.TripleID, &rec.VersionNumber,
		&changeType, &rec.ChangedByUserID, &rec.ChangeComment,
		&rec.SubjectID, &rec.PredicateURI, &rec.ObjectID, &isLiteral,
		&rec.LiteralDataType, &rec.LanguageTag, &rec.GraphURI,
		&rec.ConfidenceScore, &rec.SourceDocumentID, &isVerified, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.ChangeType = store.ChangeType(changeType)
	rec.IsLiteral = isLiteral != 0
	rec.IsVerified = isVerified != 0
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

func (v *Versions) RecordVersion(ctx context.Context, tenantID string, t *store.Triple, change store.ChangeType, meta store.VersionMeta) (*store.TripleVersion, error) {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if t == nil || t.ID == "" {
		return nil, errors.New(errors.CodeVersionInvalid, "triple has no id")
	}
	if !change.Valid() {
		return nil, errors.New(errors.CodeVersionInvalid, "unknown change type",
			errors.Field("change_type", string(change)))
	}

	tx, err := v.c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	rec := t.Clone()
	rec.TenantID = tenantID
	num, err := recordVersionTx(ctx, tx, rec, change, meta)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVersionRecordFailure, "recording version",
			errors.FieldTripleID(t.ID))
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM triple_versions WHERE tenant_id = ? AND triple_id = ? AND version_number = ?`,
		tenantID, t.ID, num)
	out, err := scanVersion(row)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading back version")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "committing version record")
	}
	return out, nil
}

func (v *Versions) GetVersionHistory(ctx context.Context, tenantID, tripleID string, maxVersions int) ([]*store.TripleVersion, error) {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	q := `SELECT ` + versionColumns + ` FROM triple_versions
WHERE tenant_id = ? AND triple_id = ? ORDER BY version_number DESC`
	args := []any{tenantID, tripleID}
	if maxVersions > 0 {
		q += ` LIMIT ?`
		args = append(args, maxVersions)
	}

	rows, err := v.c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "querying version history",
			errors.FieldTripleID(tripleID))
	}
	defer func() { _ = rows.Close() }()

	out := make([]*store.TripleVersion, 0)
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning version row")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating version history")
	}
	return out, nil
}

func (v *Versions) GetVersion(ctx context.Context, tenantID, tripleID string, version int) (*store.TripleVersion, error) {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	return v.versionAt(ctx, tenantID, tripleID, version)
}

func (v *Versions) versionAt(ctx context.Context, tenantID, tripleID string, version int) (*store.TripleVersion, error) {
	row := v.c.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM triple_versions WHERE tenant_id = ? AND triple_id = ? AND version_number = ?`,
		tenantID, tripleID, version)
	rec, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeVersionNotFound, "version not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(tripleID), errors.FieldVersion(version))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "getting version",
			errors.FieldTripleID(tripleID))
	}
	return rec, nil
}

func (v *Versions) GetVersionDiff(ctx context.Context, tenantID, tripleID string, from, to int) (*store.TripleDiff, error) {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	fromRec, err := v.versionAt(ctx, tenantID, tripleID, from)
	if err != nil {
		return nil, err
	}
	toRec, err := v.versionAt(ctx, tenantID, tripleID, to)
	if err != nil {
		return nil, err
	}
	return store.DiffVersions(fromRec, toRec), nil
}

func (v *Versions) QueryTemporal(ctx context.Context, tenantID string, q store.TemporalQuery) (*store.TemporalQueryResult, error) {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	// Load the per-triple logs in scope and hand off to the shared collector;
	// the temporal shapes all need complete logs, so no further pushdown.
	query := `SELECT ` + versionColumns + ` FROM triple_versions WHERE tenant_id = ?`
	args := []any{tenantID}
	if q.TripleID != "" {
		query += ` AND triple_id = ?`
		args = append(args, q.TripleID)
	}
	query += ` ORDER BY triple_id, version_number`

	rows, err := v.c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "querying versions")
	}
	defer func() { _ = rows.Close() }()

	logs := map[string][]*store.TripleVersion{}
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning version row")
		}
		logs[rec.TripleID] = append(logs[rec.TripleID], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating versions")
	}

	return store.CollectTemporal(logs, q)
}

func (v *Versions) CreateSnapshot(ctx context.Context, tenantID, name string, graphURIs []string) error {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return err
	}
	if name == "" {
		return errors.New(errors.CodeSnapshotInvalid, "snapshot name is empty")
	}

	graphScope := map[string]bool{}
	for _, g := range graphURIs {
		graphScope[g] = true
	}

	rows, err := v.c.db.QueryContext(ctx,
		`SELECT id, graph_uri, version FROM triples WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "listing triples for snapshot")
	}
	pointers := map[string]int{}
	for rows.Next() {
		var id, graphURI string
		var version int
		if err := rows.Scan(&id, &graphURI, &version); err != nil {
			_ = rows.Close()
			return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning snapshot row")
		}
		if len(graphScope) > 0 && !graphScope[graphURI] {
			continue
		}
		pointers[id] = version
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating snapshot rows")
	}
	_ = rows.Close()

	pointerJSON, err := json.Marshal(pointers)
	if err != nil {
		return errors.Wrap(err, errors.CodeSnapshotInvalid, "encoding snapshot pointers")
	}
	graphJSON, err := json.Marshal(append([]string{}, graphURIs...))
	if err != nil {
		return errors.Wrap(err, errors.CodeSnapshotInvalid, "encoding snapshot graphs")
	}

	var one int
	err = v.c.db.QueryRowContext(ctx,
		`SELECT 1 FROM snapshots WHERE tenant_id = ? AND name = ?`, tenantID, name).Scan(&one)
	switch {
	case err == nil:
		// Last write wins on duplicate names; an overwrite is deliberate
		// policy, so it is logged rather than rejected.
		v.c.log.WarnContext(ctx, "overwriting existing snapshot",
			slog.String("tenant_id", tenantID),
			slog.String("snapshot", name),
		)
	case err != sql.ErrNoRows:
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "checking snapshot")
	}

	_, err = v.c.db.ExecContext(ctx, `
INSERT INTO snapshots (tenant_id, name, created_at, graph_uris, pointers)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(tenant_id, name) DO UPDATE SET
	created_at = excluded.created_at,
	graph_uris = excluded.graph_uris,
	pointers = excluded.pointers`,
		tenantID, name, formatTime(time.Now()), string(graphJSON), string(pointerJSON))
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "writing snapshot",
			errors.FieldSnapshot(name))
	}
	return nil
}

func (v *Versions) RestoreSnapshot(ctx context.Context, tenantID, name string) error {
	if err := v.c.begin(ctx, tenantID); err != nil {
		return err
	}

	var pointerJSON string
	err := v.c.db.QueryRowContext(ctx,
		`SELECT pointers FROM snapshots WHERE tenant_id = ? AND name = ?`, tenantID, name).Scan(&pointerJSON)
	if err == sql.ErrNoRows {
		return errors.New(errors.CodeSnapshotNotFound, "snapshot not found",
			errors.FieldTenantID(tenantID), errors.FieldSnapshot(name))
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading snapshot",
			errors.FieldSnapshot(name))
	}

	pointers := map[string]int{}
	if err := json.Unmarshal([]byte(pointerJSON), &pointers); err != nil {
		return errors.Wrap(err, errors.CodeSnapshotInvalid, "decoding snapshot pointers",
			errors.FieldSnapshot(name))
	}

	ids := make([]string, 0, len(pointers))
	for id := range pointers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	comment := fmt.Sprintf("restored from snapshot %q", name)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.CodeInternalFailure, "context done mid-restore")
		}
		if _, err := v.restoreTo(ctx, tenantID, id, pointers[id], store.VersionMeta{ChangeComment: comment}, true); err != nil {
			v.c.log.WarnContext(ctx, "snapshot restore: skipping triple",
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
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	return v.restoreTo(ctx, tenantID, tripleID, version, meta, false)
}

// restoreTo copies a target version's field values into a new version at the
// top of the log and rewrites the live row. With skipNoop set (snapshot
// restore), a triple whose live state already matches the target records
// nothing.
func (v *Versions) restoreTo(ctx context.Context, tenantID, tripleID string, version int, meta store.VersionMeta, skipNoop bool) (*store.Triple, error) {
	tx, err := v.c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM triple_versions WHERE tenant_id = ? AND triple_id = ? AND version_number = ?`,
		tenantID, tripleID, version)
	target, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeVersionNotFound, "version not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(tripleID), errors.FieldVersion(version))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading target version")
	}

	crow := tx.QueryRowContext(ctx,
		`SELECT `+tripleColumns+` FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, tripleID)
	current, err := scanTriple(crow)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading current triple")
	}
	if err == sql.ErrNoRows {
		current = nil
	}

	restored := store.TripleFromVersion(target)
	restored.UpdatedAt = time.Now()
	if current != nil {
		restored.CreatedAt = current.CreatedAt
		if skipNoop && tripleStateEqual(current, restored) {
			return current, nil
		}
	}

	// The restoration lands at the top of the log regardless of whether the
	// triple is live or was deleted after the target version; in the deleted
	// case this brings it back into the active cycle.
	num, err := recordVersionTx(ctx, tx, restored, store.ChangeRestoration, meta)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVersionRecordFailure, "recording restoration version",
			errors.FieldTripleID(tripleID))
	}
	restored.Version = num

	if err := upsertTripleTx(ctx, tx, restored); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "rewriting live triple",
			errors.FieldTripleID(tripleID))
	}
	if err := ensureGraphTx(ctx, tx, tenantID, restored.GraphURI); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "registering graph",
			errors.FieldGraphURI(restored.GraphURI))
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "committing restoration")
	}
	return restored, nil
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
	if err := v.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	rows, err := v.c.db.QueryContext(ctx,
		`SELECT name, created_at, graph_uris, pointers FROM snapshots WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "listing snapshots")
	}
	defer func() { _ = rows.Close() }()

	out := map[string]store.SnapshotInfo{}
	for rows.Next() {
		var name, createdAt, graphJSON, pointerJSON string
		if err := rows.Scan(&name, &createdAt, &graphJSON, &pointerJSON); err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning snapshot row")
		}
		var graphs []string
		if err := json.Unmarshal([]byte(graphJSON), &graphs); err != nil {
			return nil, errors.Wrap(err, errors.CodeSnapshotInvalid, "decoding snapshot graphs",
				errors.FieldSnapshot(name))
		}
		pointers := map[string]int{}
		if err := json.Unmarshal([]byte(pointerJSON), &pointers); err != nil {
			return nil, errors.Wrap(err, errors.CodeSnapshotInvalid, "decoding snapshot pointers",
				errors.FieldSnapshot(name))
		}
		out[name] = store.SnapshotInfo{
			Name:        name,
			TenantID:    tenantID,
			CreatedAt:   parseTime(createdAt),
			TripleCount: len(pointers),
			GraphURIs:   graphs,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating snapshots")
	}
	return out, nil
}

func (v *Versions) Close() error {
	return v.c.db.Close()
}
