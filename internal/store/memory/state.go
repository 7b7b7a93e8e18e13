// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package memory

import (
	"sort"
	"time"

	"github.com/tessella-dev/tessella/internal/store"
)

// State is a portable dump of one engine's contents. The file backend uses
// it to persist the engine and rebuild it on open; slices are ordered
// deterministically so dumps of the same state are byte-identical.
type State struct {
	Triples   []*store.Triple
	Versions  []*store.TripleVersion
	Graphs    []GraphState
	Snapshots []SnapshotState
}

// GraphState is one registered named graph.
type GraphState struct {
	TenantID  string
	GraphURI  string
	CreatedAt time.Time
}

// SnapshotState is one named snapshot with its version pointers.
type SnapshotState struct {
	Info     store.SnapshotInfo
	Pointers map[string]int
}

// ExportState deep-copies the engine's contents. Safe to call concurrently
// with other operations; the dump is a consistent point-in-time view of each
// table, taken table by table.
func (s *Store) ExportState() *State {
	e := s.e
	st := &State{}

	e.mu.RLock()
	for _, t := range e.triples {
		st.Triples = append(st.Triples, t.Clone())
	}
	for gk, createdAt := range e.graphs {
		st.Graphs = append(st.Graphs, GraphState{TenantID: gk.tenant, GraphURI: gk.uri, CreatedAt: createdAt})
	}
	e.mu.RUnlock()

	e.vmu.RLock()
	for _, log := range e.versions {
		for _, rec := range log {
			st.Versions = append(st.Versions, rec.Clone())
		}
	}
	e.vmu.RUnlock()

	e.smu.RLock()
	for _, snap := range e.snapshots {
		pointers := make(map[string]int, len(snap.pointers))
		for id, v := range snap.pointers {
			pointers[id] = v
		}
		info := snap.info
		info.GraphURIs = append([]string(nil), snap.info.GraphURIs...)
		st.Snapshots = append(st.Snapshots, SnapshotState{Info: info, Pointers: pointers})
	}
	e.smu.RUnlock()

	sort.Slice(st.Triples, func(i, j int) bool {
		a, b := st.Triples[i], st.Triples[j]
		if a.TenantID != b.TenantID {
			return a.TenantID < b.TenantID
		}
		return a.ID < b.ID
	})
	sort.Slice(st.Versions, func(i, j int) bool {
		a, b := st.Versions[i], st.Versions[j]
		if a.TenantID != b.TenantID {
			return a.TenantID < b.TenantID
		}
		if a.TripleID != b.TripleID {
			return a.TripleID < b.TripleID
		}
		return a.VersionNumber < b.VersionNumber
	})
	sort.Slice(st.Graphs, func(i, j int) bool {
		a, b := st.Graphs[i], st.Graphs[j]
		if a.TenantID != b.TenantID {
			return a.TenantID < b.TenantID
		}
		return a.GraphURI < b.GraphURI
	})
	sort.Slice(st.Snapshots, func(i, j int) bool {
		a, b := st.Snapshots[i], st.Snapshots[j]
		if a.Info.TenantID != b.Info.TenantID {
			return a.Info.TenantID < b.Info.TenantID
		}
		return a.Info.Name < b.Info.Name
	})
	return st
}

// NewFromState builds a store pre-populated from a dump. Version logs are
// re-ordered by version number on load, so a hand-edited state file stays
// usable as long as the numbers themselves are intact.
func NewFromState(opts store.Options, st *State) (*Store, *Versions, error) {
	s, v, err := New(opts)
	if err != nil {
		return nil, nil, err
	}
	if st == nil {
		return s, v, nil
	}

	e := s.e
	for _, t := range st.Triples {
		e.triples[tripleKey{tenant: t.TenantID, id: t.ID}] = t.Clone()
	}
	for _, g := range st.Graphs {
		e.graphs[graphKey{tenant: g.TenantID, uri: g.GraphURI}] = g.CreatedAt
	}
	for _, rec := range st.Versions {
		key := tripleKey{tenant: rec.TenantID, id: rec.TripleID}
		e.versions[key] = append(e.versions[key], rec.Clone())
	}
	for key := range e.versions {
		log := e.versions[key]
		sort.Slice(log, func(i, j int) bool { return log[i].VersionNumber < log[j].VersionNumber })
	}
	for _, snap := range st.Snapshots {
		pointers := make(map[string]int, len(snap.Pointers))
		for id, ver := range snap.Pointers {
			pointers[id] = ver
		}
		info := snap.Info
		info.GraphURIs = append([]string(nil), snap.Info.GraphURIs...)
		e.snapshots[snapKey{tenant: info.TenantID, name: info.Name}] = &snapshot{info: info, pointers: pointers}
	}
	return s, v, nil
}
