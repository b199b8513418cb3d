package types

import "errors"

// Cabinet defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by name, and detach when done.
type Cabinet interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// Attach connects the Cabinet to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrCabinetDetached.
	Detach() error
}

// Snapshotter loads a location together with its current container set.
type Snapshotter interface {
	// Snapshot returns the location with Containers populated.
	// Returns ErrNotFound if the location does not exist.
	Snapshot(locationID string) (*Location, error)
}

// Committer applies a relocation batch. Implementations re-validate the
// occupancy of every touched location immediately before applying and
// apply either every move or none.
type Committer interface {
	Commit(req CommitRequest) error
}

// Store is the full domain/persistence layer consumed by the CLI.
type Store interface {
	Cabinet
	Snapshotter
	Committer
}

// Cabinet lifecycle errors.
var (
	ErrCabinetDetached = errors.New("cabinet is detached")
	ErrAlreadyAttached = errors.New("cabinet is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
