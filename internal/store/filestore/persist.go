// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

// Package filestore implements the file-backed triple store. State lives in
// the memory engine; every mutation writes the full state back to a YAML
// file, and opening the store reloads it. Suited to development setups and
// small graphs, not to write-heavy workloads.
package filestore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tessella-dev/tessella/internal/store"
	"github.com/tessella-dev/tessella/internal/store/memory"
	"github.com/tessella-dev/tessella/pkg/errors"
)

// stateFile is the on-disk document. The records carry explicit yaml tags so
// the file format stays stable if the domain structs grow fields.
type stateFile struct {
	Triples   []tripleRec   `yaml:"triples"`
	Versions  []versionRec  `yaml:"versions"`
	Graphs    []graphRec    `yaml:"graphs"`
	Snapshots []snapshotRec `yaml:"snapshots"`
}

type tripleRec struct {
	ID               string    `yaml:"id"`
	TenantID         string    `yaml:"tenant_id"`
	SubjectID        string    `yaml:"subject_id"`
	PredicateURI     string    `yaml:"predicate_uri"`
	ObjectID         string    `yaml:"object_id"`
	IsLiteral        bool      `yaml:"is_literal,omitempty"`
	LiteralDataType  string    `yaml:"literal_data_type,omitempty"`
	LanguageTag      string    `yaml:"language_tag,omitempty"`
	GraphURI         string    `yaml:"graph_uri"`
	ConfidenceScore  float64   `yaml:"confidence_score"`
	CreatedAt        time.Time `yaml:"created_at"`
	UpdatedAt        time.Time `yaml:"updated_at"`
	SourceDocumentID string    `yaml:"source_document_id,omitempty"`
	IsVerified       bool      `yaml:"is_verified,omitempty"`
	Version          int       `yaml:"version"`
}

type versionRec struct {
	ID               string    `yaml:"id"`
	TripleID         string    `yaml:"triple_id"`
	TenantID         string    `yaml:"tenant_id"`
	VersionNumber    int       `yaml:"version_number"`
	ChangeType       string    `yaml:"change_type"`
	ChangedByUserID  string    `yaml:"changed_by_user_id,omitempty"`
	ChangeComment    string    `yaml:"change_comment,omitempty"`
	SubjectID        string    `yaml:"subject_id"`
	PredicateURI     string    `yaml:"predicate_uri"`
	ObjectID         string    `yaml:"object_id"`
	IsLiteral        bool      `yaml:"is_literal,omitempty"`
	LiteralDataType  string    `yaml:"literal_data_type,omitempty"`
	LanguageTag      string    `yaml:"language_tag,omitempty"`
	GraphURI         string    `yaml:"graph_uri"`
	ConfidenceScore  float64   `yaml:"confidence_score"`
	SourceDocumentID string    `yaml:"source_document_id,omitempty"`
	IsVerified       bool      `yaml:"is_verified,omitempty"`
	CreatedAt        time.Time `yaml:"created_at"`
}

type graphRec struct {
	TenantID  string    `yaml:"tenant_id"`
	GraphURI  string    `yaml:"graph_uri"`
	CreatedAt time.Time `yaml:"created_at"`
}

type snapshotRec struct {
	Name        string         `yaml:"name"`
	TenantID    string         `yaml:"tenant_id"`
	CreatedAt   time.Time      `yaml:"created_at"`
	TripleCount int            `yaml:"triple_count"`
	GraphURIs   []string       `yaml:"graph_uris,omitempty"`
	Pointers    map[string]int `yaml:"pointers"`
}

func encodeState(st *memory.State) *stateFile {
	f := &stateFile{}
	for _, t := range st.Triples {
		f.Triples = append(f.Triples, tripleRec{
			ID: t.ID, TenantID: t.TenantID, SubjectID: t.SubjectID,
			PredicateURI: t.PredicateURI, ObjectID: t.ObjectID,
			IsLiteral: t.IsLiteral, LiteralDataType: t.LiteralDataType,
			LanguageTag: t.LanguageTag, GraphURI: t.GraphURI,
			ConfidenceScore: t.ConfidenceScore, CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt, SourceDocumentID: t.SourceDocumentID,
			IsVerified: t.IsVerified, Version: t.Version,
		})
	}
	for _, rec := range st.Versions {
		f.Versions = append(f.Versions, versionRec{
			ID: rec.ID, TripleID: rec.TripleID, TenantID: rec.TenantID,
			VersionNumber: rec.VersionNumber, ChangeType: string(rec.ChangeType),
			ChangedByUserID: rec.ChangedByUserID, ChangeComment: rec.ChangeComment,
			SubjectID: rec.SubjectID, PredicateURI: rec.PredicateURI,
			ObjectID: rec.ObjectID, IsLiteral: rec.IsLiteral,
			LiteralDataType: rec.LiteralDataType, LanguageTag: rec.LanguageTag,
			GraphURI: rec.GraphURI, ConfidenceScore: rec.ConfidenceScore,
			SourceDocumentID: rec.SourceDocumentID, IsVerified: rec.IsVerified,
			CreatedAt: rec.CreatedAt,
		})
	}
	for _, g := range st.Graphs {
		f.Graphs = append(f.Graphs, graphRec{TenantID: g.TenantID, GraphURI: g.GraphURI, CreatedAt: g.CreatedAt})
	}
	for _, snap := range st.Snapshots {
		f.Snapshots = append(f.Snapshots, snapshotRec{
			Name: snap.Info.Name, TenantID: snap.Info.TenantID,
			CreatedAt: snap.Info.CreatedAt, TripleCount: snap.Info.TripleCount,
			GraphURIs: snap.Info.GraphURIs, Pointers: snap.Pointers,
		})
	}
	return f
}

func decodeState(f *stateFile) *memory.State {
	st := &memory.State{}
	for _, r := range f.Triples {
		st.Triples = append(st.Triples, &store.Triple{
			ID: r.ID, TenantID: r.TenantID, SubjectID: r.SubjectID,
			PredicateURI: r.PredicateURI, ObjectID: r.ObjectID,
			IsLiteral: r.IsLiteral, LiteralDataType: r.LiteralDataType,
			LanguageTag: r.LanguageTag, GraphURI: r.GraphURI,
			ConfidenceScore: r.ConfidenceScore, CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt, SourceDocumentID: r.SourceDocumentID,
			IsVerified: r.IsVerified, Version: r.Version,
		})
	}
	for _, r := range f.Versions {
		st.Versions = append(st.Versions, &store.TripleVersion{
			ID: r.ID, TripleID: r.TripleID, TenantID: r.TenantID,
			VersionNumber: r.VersionNumber, ChangeType: store.ChangeType(r.ChangeType),
			ChangedByUserID: r.ChangedByUserID, ChangeComment: r.ChangeComment,
			SubjectID: r.SubjectID, PredicateURI: r.PredicateURI,
			ObjectID: r.ObjectID, IsLiteral: r.IsLiteral,
			LiteralDataType: r.LiteralDataType, LanguageTag: r.LanguageTag,
			GraphURI: r.GraphURI, ConfidenceScore: r.ConfidenceScore,
			SourceDocumentID: r.SourceDocumentID, IsVerified: r.IsVerified,
			CreatedAt: r.CreatedAt,
		})
	}
	for _, r := range f.Graphs {
		st.Graphs = append(st.Graphs, memory.GraphState{TenantID: r.TenantID, GraphURI: r.GraphURI, CreatedAt: r.CreatedAt})
	}
	for _, r := range f.Snapshots {
		st.Snapshots = append(st.Snapshots, memory.SnapshotState{
			Info: store.SnapshotInfo{
				Name: r.Name, TenantID: r.TenantID, CreatedAt: r.CreatedAt,
				TripleCount: r.TripleCount, GraphURIs: r.GraphURIs,
			},
			Pointers: r.Pointers,
		})
	}
	return st
}

// persister owns the file. flush serializes the full state and writes it
// atomically (temp file + rename), so a crash mid-write leaves the previous
// file intact.
type persister struct {
	path string
	mu   sync.Mutex
}

func (p *persister) flush(st *memory.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := yaml.Marshal(encodeState(st))
	if err != nil {
		return errors.Wrap(err, errors.CodeStorePersistenceFailure, "encoding state file")
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".tessella-state-*")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorePersistenceFailure, "creating temp state file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeStorePersistenceFailure, "writing temp state file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeStorePersistenceFailure, "closing temp state file")
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeStorePersistenceFailure, "replacing state file")
	}
	return nil
}

// load reads the state file. A missing file is an empty store.
func (p *persister) load() (*memory.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return &memory.State{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorePersistenceFailure, "reading state file")
	}

	var f stateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorePersistenceFailure, "decoding state file")
	}
	return decodeState(&f), nil
}
