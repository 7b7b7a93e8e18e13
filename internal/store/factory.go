// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package store

import (
	"log/slog"
	"sync"

	"github.com/tessella-dev/tessella/pkg/errors"
)

// StoreType names a storage backend.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeSQL    StoreType = "sqlite"
	// Recognized but not shipped in-tree; selecting one without a registered
	// backend yields an unsupported error.
	StoreTypeNoSQL          StoreType = "nosql"
	StoreTypeSparqlEndpoint StoreType = "sparql"
)

// Defaults for Options fields left zero.
const (
	DefaultQueryLimit             = 1000
	DefaultQueryTimeoutSeconds    = 30
	DefaultMinConfidenceThreshold = 0.5
	DefaultGraphURI               = "urn:tessella:graph:default"
)

// Options configures a store instance. Build from DefaultOptions rather than
// a zero literal: ValidateTriples and EnableVersioning default to on, which a
// zero Options would silently disable.
type Options struct {
	StoreType              StoreType
	ConnectionString       string
	EnableInference        bool
	EnableVersioning       bool
	DefaultGraphURI        string
	DefaultQueryLimit      int
	QueryTimeoutSeconds    int
	ValidateTriples        bool
	MinConfidenceThreshold float64

	// Sparql is the optional external query-engine collaborator.
	Sparql SparqlExecutor
	Logger *slog.Logger
}

// DefaultOptions returns Options with the documented defaults and the memory
// backend selected.
func DefaultOptions() Options {
	return Options{
		StoreType:              StoreTypeMemory,
		EnableVersioning:       true,
		DefaultGraphURI:        DefaultGraphURI,
		DefaultQueryLimit:      DefaultQueryLimit,
		QueryTimeoutSeconds:    DefaultQueryTimeoutSeconds,
		ValidateTriples:        true,
		MinConfidenceThreshold: DefaultMinConfidenceThreshold,
	}
}

// normalized fills zero fields that have non-zero defaults. Boolean options
// are left alone; DefaultOptions is the place where they default to true.
func (o Options) normalized() Options {
	if o.StoreType == "" {
		o.StoreType = StoreTypeMemory
	}
	if o.DefaultGraphURI == "" {
		o.DefaultGraphURI = DefaultGraphURI
	}
	if o.DefaultQueryLimit <= 0 {
		o.DefaultQueryLimit = DefaultQueryLimit
	}
	if o.QueryTimeoutSeconds <= 0 {
		o.QueryTimeoutSeconds = DefaultQueryTimeoutSeconds
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// BackendFactory creates the paired store and version log for one backend.
// The two share state: the version store's restore operations rewrite the
// triple store's live table.
type BackendFactory func(opts Options) (TripleStore, VersionStore, error)

var (
	factories   = map[StoreType]BackendFactory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a store type. Backend packages
// call this from init(). Goroutine-safe.
func RegisterBackend(t StoreType, factory BackendFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[t] = factory
}

// New creates the triple store and version store for opts.StoreType.
func New(opts Options) (TripleStore, VersionStore, error) {
	opts = opts.normalized()

	factoriesMu.RLock()
	factory, ok := factories[opts.StoreType]
	factoriesMu.RUnlock()
	if !ok {
		return nil, nil, errors.New(errors.CodeStoreBackendUnsupported,
			"unsupported storage backend", errors.Field("store_type", string(opts.StoreType)))
	}

	return factory(opts)
}
