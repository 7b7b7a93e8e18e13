// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import (
	"sort"
	"time"

	"github.com/tessella-dev/tessella/pkg/errors"
)

// CollectTemporal evaluates a temporal query against per-triple version
// logs (each log ascending by version number). Backends load the logs in
// scope however they store them and delegate here so time-travel semantics
// cannot drift between implementations. Exactly one query shape applies,
// resolved in the order documented on TemporalQuery.
func CollectTemporal(logs map[string][]*TripleVersion, q TemporalQuery) (*TemporalQueryResult, error) {
	ids := make([]string, 0, len(logs))
	for id := range logs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := &TemporalQueryResult{}
	switch {
	case q.VersionNumber > 0:
		collectExactVersions(ids, logs, q, res)
	case !q.AsOf.IsZero():
		collectAsOf(ids, logs, q, res)
	case !q.From.IsZero() || !q.To.IsZero():
		collectRange(ids, logs, q, res)
	default:
		return nil, errors.New(errors.CodeStoreQueryInvalid,
			"temporal query needs a version number, as-of instant, or date range")
	}

	res.TotalCount = len(res.Triples) + len(res.Versions) + len(res.Diffs)
	if q.Limit > 0 {
		if len(res.Triples) > q.Limit {
			res.Triples = res.Triples[:q.Limit]
		}
		if len(res.Versions) > q.Limit {
			res.Versions = res.Versions[:q.Limit]
		}
		if len(res.Diffs) > q.Limit {
			res.Diffs = res.Diffs[:q.Limit]
		}
	}
	return res, nil
}

func collectExactVersions(ids []string, logs map[string][]*TripleVersion, q TemporalQuery, res *TemporalQueryResult) {
	for _, id := range ids {
		log := logs[id]
		if q.VersionNumber > len(log) {
			continue
		}
		rec := log[q.VersionNumber-1]
		if q.GraphURI != "" && rec.GraphURI != q.GraphURI {
			continue
		}
		res.Versions = append(res.Versions, rec.Clone())
	}
}

// collectAsOf reconstructs the graph state at q.AsOf: for each triple the
// highest version with CreatedAt <= AsOf is its effective state; a deletion
// there means the triple is absent unless IncludeDeleted.
func collectAsOf(ids []string, logs map[string][]*TripleVersion, q TemporalQuery, res *TemporalQueryResult) {
	for _, id := range ids {
		log := logs[id]
		var effective *TripleVersion
		for i := len(log) - 1; i >= 0; i-- {
			if !log[i].CreatedAt.After(q.AsOf) {
				effective = log[i]
				break
			}
		}
		if effective == nil {
			continue
		}
		if effective.ChangeType == ChangeDeletion && !q.IncludeDeleted {
			continue
		}
		if q.GraphURI != "" && effective.GraphURI != q.GraphURI {
			continue
		}
		if q.DiffOnly {
			if effective.VersionNumber > 1 {
				res.Diffs = append(res.Diffs, DiffVersions(log[0], effective))
			}
			continue
		}
		res.Triples = append(res.Triples, TripleFromVersion(effective))
	}
}

// collectRange returns every version recorded inside [From, To]; zero bounds
// are open. In DiffOnly mode each triple with at least two in-range versions
// contributes the earliest-to-latest transition instead.
func collectRange(ids []string, logs map[string][]*TripleVersion, q TemporalQuery, res *TemporalQueryResult) {
	inRange := func(ts time.Time) bool {
		if !q.From.IsZero() && ts.Before(q.From) {
			return false
		}
		if !q.To.IsZero() && ts.After(q.To) {
			return false
		}
		return true
	}

	for _, id := range ids {
		var window []*TripleVersion
		for _, rec := range logs[id] {
			if !inRange(rec.CreatedAt) {
				continue
			}
			if q.GraphURI != "" && rec.GraphURI != q.GraphURI {
				continue
			}
			window = append(window, rec)
		}
		if len(window) == 0 {
			continue
		}
		if q.DiffOnly {
			if len(window) >= 2 {
				res.Diffs = append(res.Diffs, DiffVersions(window[0], window[len(window)-1]))
			}
			continue
		}
		for _, rec := range window {
			res.Versions = append(res.Versions, rec.Clone())
		}
	}
}
