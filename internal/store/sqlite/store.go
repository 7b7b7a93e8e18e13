// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

// Package sqlite implements the triple store on SQLite. The logical schema
// mirrors the persisted-state contract: a current-state table keyed by
// (tenant_id, id), an append-only triple_versions table keyed by
// (tenant_id, triple_id, version_number), and a snapshots table keyed by
// (tenant_id, name) holding (triple id -> version number) pointers as JSON.
//
// Write transactions open with _txlock=immediate so concurrent mutations of
// the same triple serialize at the database level; the version-number
// primary key then guarantees the gapless sequence.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/pkg/errors"
)

// conn is the shared connection behind the Store and Versions views.
type conn struct {
	db   *sql.DB
	opts store.Options
	log  *slog.Logger
}

// Store implements store.TripleStore backed by SQLite.
type Store struct {
	c *conn
}

// Compile-time interface check.
var _ store.TripleStore = (*Store)(nil)

// Open opens (or creates) the SQLite database named by
// opts.ConnectionString and initialises the schema.
func Open(opts store.Options) (*Store, *Versions, error) {
	if opts.ConnectionString == "" {
		return nil, nil, errors.New(errors.CodeConfigInvalidValue, "sqlite backend needs a connection string")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", opts.ConnectionString+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "opening sqlite db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "pinging sqlite db")
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "migrating sqlite db")
	}

	c := &conn{db: db, opts: opts, log: opts.Logger}
	return &Store{c: c}, &Versions{c: c}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS triples (
	tenant_id          TEXT NOT NULL,
	id                 TEXT NOT NULL,
	subject_id         TEXT NOT NULL,
	predicate_uri      TEXT NOT NULL,
	object_id          TEXT NOT NULL,
	is_literal         INTEGER NOT NULL DEFAULT 0,
	literal_data_type  TEXT NOT NULL DEFAULT '',
	language_tag       TEXT NOT NULL DEFAULT '',
	graph_uri          TEXT NOT NULL,
	confidence_score   REAL NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	source_document_id TEXT NOT NULL DEFAULT '',
	is_verified        INTEGER NOT NULL DEFAULT 0,
	version            INTEGER NOT NULL,
	PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_triples_spo   ON triples(tenant_id, subject_id, predicate_uri, object_id);
CREATE INDEX IF NOT EXISTS idx_triples_graph ON triples(tenant_id, graph_uri);

CREATE TABLE IF NOT EXISTS graphs (
	tenant_id  TEXT NOT NULL,
	graph_uri  TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (tenant_id, graph_uri)
);

CREATE TABLE IF NOT EXISTS triple_versions (
	id                 TEXT NOT NULL,
	tenant_id          TEXT NOT NULL,
	triple_id          TEXT NOT NULL,
	version_number     INTEGER NOT NULL,
	change_type        TEXT NOT NULL,
	changed_by_user_id TEXT NOT NULL DEFAULT '',
	change_comment     TEXT NOT NULL DEFAULT '',
	subject_id         TEXT NOT NULL,
	predicate_uri      TEXT NOT NULL,
	object_id          TEXT NOT NULL,
	is_literal         INTEGER NOT NULL DEFAULT 0,
	literal_data_type  TEXT NOT NULL DEFAULT '',
	language_tag       TEXT NOT NULL DEFAULT '',
	graph_uri          TEXT NOT NULL,
	confidence_score   REAL NOT NULL DEFAULT 0,
	source_document_id TEXT NOT NULL DEFAULT '',
	is_verified        INTEGER NOT NULL DEFAULT 0,
	created_at         TEXT NOT NULL,
	PRIMARY KEY (tenant_id, triple_id, version_number)
);

CREATE TABLE IF NOT EXISTS snapshots (
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	graph_uris TEXT NOT NULL DEFAULT '[]',
	pointers   TEXT NOT NULL,
	PRIMARY KEY (tenant_id, name)
);
`
	_, err := db.Exec(ddl)
	return err
}

// begin runs the shared operation preamble.
func (c *conn) begin(ctx context.Context, tenantID string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeInternalFailure, "context done")
	}
	return store.ValidateTenantID(tenantID)
}

const tripleColumns = `tenant_id, id, subject_id, predicate_uri, object_id, is_literal,
literal_data_type, language_tag, graph_uri, confidence_score, created_at,
updated_at, source_document_id, is_verified, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTriple(row rowScanner) (*store.Triple, error) {
	var t store.Triple
	var isLiteral, isVerified int
	var createdAt, updatedAt string
	err := row.Scan(&t.TenantID, &t.ID, &t.SubjectID, &t.PredicateURI, &t.ObjectID,
		&isLiteral, &t.LiteralDataType, &t.LanguageTag, &t.GraphURI,
		&t.ConfidenceScore, &createdAt, &updatedAt, &t.SourceDocumentID,
		&isVerified, &t.Version)
	if err != nil {
		return nil, err
	}
	t.IsLiteral = isLiteral != 0
	t.IsVerified = isVerified != 0
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

const insertTripleSQL = `INSERT INTO triples (` + tripleColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertTripleTx(ctx context.Context, tx *sql.Tx, t *store.Triple) error {
	_, err := tx.ExecContext(ctx, insertTripleSQL,
		t.TenantID, t.ID, t.SubjectID, t.PredicateURI, t.ObjectID,
		boolInt(t.IsLiteral), t.LiteralDataType, t.LanguageTag, t.GraphURI,
		t.ConfidenceScore, formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		t.SourceDocumentID, boolInt(t.IsVerified), t.Version)
	return err
}

const upsertTripleSQL = `INSERT INTO triples (` + tripleColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(tenant_id, id) DO UPDATE SET
	subject_id = excluded.subject_id,
	predicate_uri = excluded.predicate_uri,
	object_id = excluded.object_id,
	is_literal = excluded.is_literal,
	literal_data_type = excluded.literal_data_type,
	language_tag = excluded.language_tag,
	graph_uri = excluded.graph_uri,
	confidence_score = excluded.confidence_score,
	updated_at = excluded.updated_at,
	source_document_id = excluded.source_document_id,
	is_verified = excluded.is_verified,
	version = excluded.version`

func upsertTripleTx(ctx context.Context, tx *sql.Tx, t *store.Triple) error {
	_, err := tx.ExecContext(ctx, upsertTripleSQL,
		t.TenantID, t.ID, t.SubjectID, t.PredicateURI, t.ObjectID,
		boolInt(t.IsLiteral), t.LiteralDataType, t.LanguageTag, t.GraphURI,
		t.ConfidenceScore, formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		t.SourceDocumentID, boolInt(t.IsVerified), t.Version)
	return err
}

func ensureGraphTx(ctx context.Context, tx *sql.Tx, tenantID, graphURI string) error {
	const q = `INSERT INTO graphs (tenant_id, graph_uri, created_at) VALUES (?, ?, ?)
ON CONFLICT(tenant_id, graph_uri) DO NOTHING`
	_, err := tx.ExecContext(ctx, q, tenantID, graphURI, formatTime(time.Now()))
	return err
}

// insertVersionSQL appends a version with the next gapless number. The
// aggregate subselect always yields exactly one row, so this works for the
// first version too.
const insertVersionSQL = `INSERT INTO triple_versions (
	id, tenant_id, triple_id, version_number, change_type, changed_by_user_id,
	change_comment, subject_id, predicate_uri, object_id, is_literal,
	literal_data_type, language_tag, graph_uri, confidence_score,
	source_document_id, is_verified, created_at)
SELECT ?, ?, ?, COALESCE(MAX(version_number), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
FROM triple_versions WHERE tenant_id = ? AND triple_id = ?`

// recordVersionTx appends a version record inside tx and returns the number
// it was assigned.
func recordVersionTx(ctx context.Context, tx *sql.Tx, t *store.Triple, change store.ChangeType, meta store.VersionMeta) (int, error) {
	_, err := tx.ExecContext(ctx, insertVersionSQL,
		uuid.NewString(), t.TenantID, t.ID, string(change),
		meta.ChangedByUserID, meta.ChangeComment,
		t.SubjectID, t.PredicateURI, t.ObjectID, boolInt(t.IsLiteral),
		t.LiteralDataType, t.LanguageTag, t.GraphURI, t.ConfidenceScore,
		t.SourceDocumentID, boolInt(t.IsVerified), formatTime(time.Now()),
		t.TenantID, t.ID)
	if err != nil {
		return 0, err
	}

	var num int
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(version_number) FROM triple_versions WHERE tenant_id = ? AND triple_id = ?`,
		t.TenantID, t.ID).Scan(&num)
	return num, err
}

func (s *Store) AddTriple(ctx context.Context, tenantID string, t *store.Triple) error {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return err
	}
	if t == nil {
		return errors.New(errors.CodeStoreTripleInvalid, "triple is nil")
	}
	if s.c.opts.ValidateTriples {
		if err := store.ValidateTriple(t, s.c.opts.MinConfidenceThreshold); err != nil {
			return err
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.TenantID = tenantID
	if t.GraphURI == "" {
		t.GraphURI = s.c.opts.DefaultGraphURI
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1

	tx, err := s.c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, t.ID).Scan(&one)
	switch {
	case err == nil:
		return errors.New(errors.CodeStoreTripleConflict, "triple id already exists",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(t.ID))
	case err != sql.ErrNoRows:
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "checking triple existence")
	}

	if err := insertTripleTx(ctx, tx, t); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "inserting triple",
			errors.FieldTripleID(t.ID))
	}
	if err := ensureGraphTx(ctx, tx, tenantID, t.GraphURI); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "registering graph",
			errors.FieldGraphURI(t.GraphURI))
	}
	if s.c.opts.EnableVersioning {
		if _, err := recordVersionTx(ctx, tx, t, store.ChangeCreation, store.VersionMeta{}); err != nil {
			return errors.Wrap(err, errors.CodeVersionRecordFailure, "recording creation version",
				errors.FieldTripleID(t.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "committing triple insert")
	}
	return nil
}

func (s *Store) AddTriples(ctx context.Context, tenantID string, ts []*store.Triple) (int, error) {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return 0, err
	}

	added := 0
	for i, t := range ts {
		if err := s.AddTriple(ctx, tenantID, t); err != nil {
			s.c.log.WarnContext(ctx, "batch insert: skipping triple",
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
	if err := s.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if graphURI == "" {
		graphURI = s.c.opts.DefaultGraphURI
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
	if err := s.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if graphURI == "" {
		graphURI = s.c.opts.DefaultGraphURI
	}
	candidates, err := store.TriplesFromEntityAttributes(ent, graphURI)
	if err != nil {
		return nil, err
	}

	inserted := make([]*store.Triple, 0, len(candidates))
	for _, t := range candidates {
		if err := s.AddTriple(ctx, tenantID, t); err != nil {
			s.c.log.WarnContext(ctx, "entity expansion: skipping attribute triple",
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
	if err := s.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	row := s.c.db.QueryRowContext(ctx,
		`SELECT `+tripleColumns+` FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, id)
	t, err := scanTriple(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "getting triple",
			errors.FieldTripleID(id))
	}
	return t, nil
}

func (s *Store) UpdateTriple(ctx context.Context, tenantID string, t *store.Triple) error {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return err
	}
	if t == nil || t.ID == "" {
		return errors.New(errors.CodeStoreTripleInvalid, "triple has no id")
	}
	if s.c.opts.ValidateTriples {
		if err := store.ValidateTriple(t, s.c.opts.MinConfidenceThreshold); err != nil {
			return err
		}
	}

	tx, err := s.c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tripleColumns+` FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, t.ID)
	current, err := scanTriple(row)
	if err == sql.ErrNoRows {
		return errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(t.ID))
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading current triple")
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

	if err := upsertTripleTx(ctx, tx, next); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "updating triple",
			errors.FieldTripleID(t.ID))
	}
	if err := ensureGraphTx(ctx, tx, tenantID, next.GraphURI); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "registering graph",
			errors.FieldGraphURI(next.GraphURI))
	}
	if s.c.opts.EnableVersioning {
		change := store.ChangeMetadataUpdate
		switch {
		case coreChanged:
			change = store.ChangeUpdate
		case next.GraphURI != current.GraphURI:
			change = store.ChangeGraphMigration
		}
		if _, err := recordVersionTx(ctx, tx, next, change, store.VersionMeta{}); err != nil {
			return errors.Wrap(err, errors.CodeVersionRecordFailure, "recording update version",
				errors.FieldTripleID(t.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "committing triple update")
	}

	t.Version = next.Version
	t.CreatedAt = next.CreatedAt
	t.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *Store) VerifyTriple(ctx context.Context, tenantID, id, verifiedBy string) error {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return err
	}

	tx, err := s.c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tripleColumns+` FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, id)
	current, err := scanTriple(row)
	if err == sql.ErrNoRows {
		return errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(id))
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading current triple")
	}

	current.IsVerified = true
	current.UpdatedAt = time.Now()
	current.Version++

	if err := upsertTripleTx(ctx, tx, current); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "verifying triple",
			errors.FieldTripleID(id))
	}
	if s.c.opts.EnableVersioning {
		if _, err := recordVersionTx(ctx, tx, current, store.ChangeVerification,
			store.VersionMeta{ChangedByUserID: verifiedBy}); err != nil {
			return errors.Wrap(err, errors.CodeVersionRecordFailure, "recording verification version",
				errors.FieldTripleID(id))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "committing verification")
	}
	return nil
}

func (s *Store) RemoveTriple(ctx context.Context, tenantID, id string) error {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return err
	}

	tx, err := s.c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tripleColumns+` FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, id)
	current, err := scanTriple(row)
	if err == sql.ErrNoRows {
		return errors.New(errors.CodeStoreTripleNotFound, "triple not found",
			errors.FieldTenantID(tenantID), errors.FieldTripleID(id))
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "reading current triple")
	}

	// Deletion version first: the final history entry carries pre-deletion
	// values.
	if s.c.opts.EnableVersioning {
		final := current.Clone()
		final.Version = current.Version + 1
		if _, err := recordVersionTx(ctx, tx, final, store.ChangeDeletion, store.VersionMeta{}); err != nil {
			return errors.Wrap(err, errors.CodeVersionRecordFailure, "recording deletion version",
				errors.FieldTripleID(id))
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM triples WHERE tenant_id = ? AND id = ?`, tenantID, id); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "deleting triple",
			errors.FieldTripleID(id))
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "committing triple removal")
	}
	return nil
}

// Query filters current state with SQL for the field filters and finishes in
// Go: the custom Filter predicate cannot be pushed down, so pagination and
// TotalCount are computed after the in-process pass to keep one code path.
func (s *Store) Query(ctx context.Context, tenantID string, q store.TripleQuery) (*store.TripleQueryResult, error) {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT ` + tripleColumns + ` FROM triples WHERE tenant_id = ?`)
	args = append(args, tenantID)

	if q.SubjectID != "" {
		qb.WriteString(` AND subject_id = ?`)
		args = append(args, q.SubjectID)
	}
	if q.PredicateURI != "" {
		qb.WriteString(` AND predicate_uri = ?`)
		args = append(args, q.PredicateURI)
	}
	if q.ObjectID != "" {
		qb.WriteString(` AND object_id = ?`)
		args = append(args, q.ObjectID)
	}
	if q.GraphURI != "" {
		qb.WriteString(` AND graph_uri = ?`)
		args = append(args, q.GraphURI)
	}
	if q.IsLiteral != nil {
		qb.WriteString(` AND is_literal = ?`)
		args = append(args, boolInt(*q.IsLiteral))
	}
	if q.IsVerified != nil {
		qb.WriteString(` AND is_verified = ?`)
		args = append(args, boolInt(*q.IsVerified))
	}
	if q.MinConfidence > 0 {
		qb.WriteString(` AND confidence_score >= ?`)
		args = append(args, q.MinConfidence)
	}
	if q.MaxConfidence > 0 {
		qb.WriteString(` AND confidence_score <= ?`)
		args = append(args, q.MaxConfidence)
	}
	if !q.CreatedAfter.IsZero() {
		qb.WriteString(` AND created_at >= ?`)
		args = append(args, formatTime(q.CreatedAfter))
	}
	if !q.CreatedBefore.IsZero() {
		qb.WriteString(` AND created_at <= ?`)
		args = append(args, formatTime(q.CreatedBefore))
	}
	qb.WriteString(` ORDER BY created_at, id`)

	rows, err := s.c.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "querying triples")
	}
	defer func() { _ = rows.Close() }()

	var matched []*store.Triple
	for rows.Next() {
		t, err := scanTriple(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning triple row")
		}
		if q.Filter != nil && !q.Filter(t) {
			continue
		}
		matched = append(matched, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating triples")
	}

	total := len(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = s.c.opts.DefaultQueryLimit
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

func (s *Store) ExecuteSparql(ctx context.Context, tenantID, query string) (any, error) {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}
	if s.c.opts.Sparql == nil {
		return nil, errors.New(errors.CodeStoreSparqlUnsupported, "no sparql executor configured")
	}

	timeout := time.Duration(s.c.opts.QueryTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.c.opts.Sparql.Execute(ctx, tenantID, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.CodeStoreSparqlTimeout, "sparql query timed out")
		}
		return nil, errors.Wrap(err, errors.CodeStoreSparqlFailure, "sparql query failed")
	}
	return res, nil
}

func (s *Store) CreateGraph(ctx context.Context, tenantID, graphURI string) error {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return err
	}
	if graphURI == "" {
		return errors.New(errors.CodeStoreQueryInvalid, "graph uri is empty")
	}

	res, err := s.c.db.ExecContext(ctx,
		`INSERT INTO graphs (tenant_id, graph_uri, created_at) VALUES (?, ?, ?)
ON CONFLICT(tenant_id, graph_uri) DO NOTHING`,
		tenantID, graphURI, formatTime(time.Now()))
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreDatabaseFailure, "creating graph",
			errors.FieldGraphURI(graphURI))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.CodeStoreGraphConflict, "graph already exists",
			errors.FieldTenantID(tenantID), errors.FieldGraphURI(graphURI))
	}
	return nil
}

func (s *Store) RemoveGraph(ctx context.Context, tenantID, graphURI string) (int, error) {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return 0, err
	}

	var registered bool
	var one int
	err := s.c.db.QueryRowContext(ctx,
		`SELECT 1 FROM graphs WHERE tenant_id = ? AND graph_uri = ?`, tenantID, graphURI).Scan(&one)
	switch err {
	case nil:
		registered = true
	case sql.ErrNoRows:
	default:
		return 0, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "checking graph")
	}

	rows, err := s.c.db.QueryContext(ctx,
		`SELECT id FROM triples WHERE tenant_id = ? AND graph_uri = ?`, tenantID, graphURI)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "listing graph triples")
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning triple id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating graph triples")
	}
	_ = rows.Close()

	if !registered && len(ids) == 0 {
		return 0, errors.New(errors.CodeStoreGraphNotFound, "graph not found",
			errors.FieldTenantID(tenantID), errors.FieldGraphURI(graphURI))
	}

	removed := 0
	for _, id := range ids {
		if err := s.RemoveTriple(ctx, tenantID, id); err != nil {
			s.c.log.WarnContext(ctx, "graph removal: skipping triple",
				slog.String("tenant_id", tenantID),
				slog.String("graph_uri", graphURI),
				slog.String("triple_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}

	if _, err := s.c.db.ExecContext(ctx,
		`DELETE FROM graphs WHERE tenant_id = ? AND graph_uri = ?`, tenantID, graphURI); err != nil {
		return removed, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "unregistering graph",
			errors.FieldGraphURI(graphURI))
	}
	return removed, nil
}

func (s *Store) Statistics(ctx context.Context, tenantID string) (*store.StoreStatistics, error) {
	if err := s.c.begin(ctx, tenantID); err != nil {
		return nil, err
	}

	stats := &store.StoreStatistics{TriplesByGraph: map[string]int{}}

	row := s.c.db.QueryRowContext(ctx, `
SELECT COUNT(*),
	COALESCE(SUM(is_verified), 0),
	COALESCE(SUM(is_literal), 0),
	COALESCE(AVG(confidence_score), 0)
FROM triples WHERE tenant_id = ?`, tenantID)
	if err := row.Scan(&stats.TotalTriples, &stats.VerifiedTriples, &stats.LiteralTriples, &stats.AverageConfidence); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "aggregating statistics")
	}

	rows, err := s.c.db.QueryContext(ctx,
		`SELECT graph_uri, COUNT(*) FROM triples WHERE tenant_id = ? GROUP BY graph_uri`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "counting graph triples")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var uri string
		var n int
		if err := rows.Scan(&uri, &n); err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning graph count")
		}
		stats.TriplesByGraph[uri] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating graph counts")
	}

	grows, err := s.c.db.QueryContext(ctx,
		`SELECT graph_uri FROM graphs WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "listing graphs")
	}
	defer func() { _ = grows.Close() }()
	for grows.Next() {
		var uri string
		if err := grows.Scan(&uri); err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "scanning graph uri")
		}
		if _, ok := stats.TriplesByGraph[uri]; !ok {
			stats.TriplesByGraph[uri] = 0
		}
	}
	if err := grows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreDatabaseFailure, "iterating graphs")
	}

	stats.GraphCount = len(stats.TriplesByGraph)
	return stats, nil
}

func (s *Store) Close() error {
	return s.c.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout keeps the fractional seconds fixed-width so stored timestamps
// compare correctly as strings in SQL range filters and ORDER BY.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime serialises a time.Time to UTC RFC3339 with fixed nanosecond
// precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
