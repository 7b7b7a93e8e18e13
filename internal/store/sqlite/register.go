// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

package sqlite

import "github.com/tessella-dev/tessella/internal/store"

func init() {
	store.RegisterBackend(store.StoreTypeSQL, func(opts store.Options) (store.TripleStore, store.VersionStore, error) {
		return Open(opts)
	})
}
