// Package sqlite exposes the SQLite store while keeping its implementation
// internal.
package sqlite

import (
	"github.com/mesh-intelligence/rackgrid/internal/sqlite"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// NewStore creates a new SQLite store. The store is not attached; call
// Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewStore()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".rackgrid-db",
//	})
//	defer store.Detach()
func NewStore() types.Store {
	return sqlite.NewBackend()
}
