package types

import "errors"

// Table provides uniform CRUD operations for a single entity type.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates an entity. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, data any) (string, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(id string) error

	// Fetch returns all entities matching the filter. An empty filter
	// returns every entity in the table.
	Fetch(filter map[string]any) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidName   = errors.New("invalid name")
	ErrInvalidFilter = errors.New("invalid filter value type")
	ErrNotEmpty      = errors.New("location still holds containers")
)

// Placement errors. ErrOutOfBounds, ErrOccupied and ErrDuplicateTarget are
// reported as plan rejection reasons during preview and only surface as
// errors from a Committer or from direct slot assignment.
var (
	ErrInvalidPositionFormat = errors.New("invalid position format")
	ErrOutOfBounds           = errors.New("position out of bounds")
	ErrOccupied              = errors.New("position is occupied")
	ErrDuplicateTarget       = errors.New("duplicate target position")
	ErrDataInconsistency     = errors.New("containers claim the same position")
	ErrStaleSnapshot         = errors.New("location changed since snapshot")
)

// Programming errors. These propagate as fatal.
var (
	ErrNilContainer      = errors.New("container is nil")
	ErrNilLocation       = errors.New("location is nil")
	ErrInvalidTransition = errors.New("invalid state transition")
)
