package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

var _ types.Table = (*locationsTable)(nil)

// locationsTable implements types.Table for *types.Location. Locations
// returned by Get and Fetch do not carry their containers; use
// Backend.Snapshot for that.
type locationsTable struct {
	backend *Backend
}

// Get retrieves a location by ID.
func (t *locationsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}
	return getLocation(db, id)
}

// Set creates or updates a location. An empty id creates a location with a
// new UUID v7. Names are unique. Changing the geometry of a location is
// refused with ErrOutOfBounds when a stored container would no longer fit.
func (t *locationsTable) Set(id string, data any) (string, error) {
	loc, ok := data.(*types.Location)
	if !ok || loc == nil {
		return "", types.ErrInvalidData
	}
	if err := loc.Validate(); err != nil {
		return "", err
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	db, err := t.backend.conn()
	if err != nil {
		return "", err
	}

	if id == "" {
		if id, err = newID(); err != nil {
			return "", err
		}
		loc.CreatedAt = time.Now().UTC()
	}
	loc.LocationID = id
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holder string
	err = tx.QueryRow("SELECT location_id FROM locations WHERE name = ? AND location_id != ?", loc.Name, id).Scan(&holder)
	if err == nil {
		return "", fmt.Errorf("%w: %q is used by location %s", types.ErrInvalidName, loc.Name, holder)
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("checking location name: %w", err)
	}

	existing, err := containersIn(tx, id)
	if err != nil {
		return "", err
	}
	if err := fits(loc, existing); err != nil {
		return "", err
	}

	rec := locationToJSON(loc)
	_, err = tx.Exec(`INSERT INTO locations (`+locationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(location_id) DO UPDATE SET name = excluded.name, grid_rows = excluded.grid_rows,
grid_cols = excluded.grid_cols, scheme = excluded.scheme, capacity = excluded.capacity,
default_direction = excluded.default_direction`,
		rec.LocationID, rec.Name, rec.GridRows, rec.GridCols, rec.Scheme, rec.Capacity, rec.DefaultDirection, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("persisting location: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing location: %w", err)
	}

	if err := t.backend.persistLocations(); err != nil {
		return "", err
	}
	return id, nil
}

// fits checks that the stored containers still have a place in loc.
func fits(loc *types.Location, containers []*types.Container) error {
	if loc.Scheme == types.SchemeNone {
		if loc.Capacity > 0 && len(containers) > loc.Capacity {
			return fmt.Errorf("%w: %d containers exceed capacity %d", types.ErrOutOfBounds, len(containers), loc.Capacity)
		}
		return nil
	}
	for _, c := range containers {
		slot, err := grid.SlotOf(c, loc)
		if err != nil {
			return fmt.Errorf("container %s does not fit: %w", c.ContainerID, err)
		}
		if slot >= loc.Limit() {
			return fmt.Errorf("%w: container %s at slot %d exceeds capacity %d", types.ErrOutOfBounds, c.ContainerID, slot, loc.Limit())
		}
	}
	return nil
}

// Delete removes an empty location. Returns ErrNotEmpty while containers
// are stored in it.
func (t *locationsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	db, err := t.backend.conn()
	if err != nil {
		return err
	}
	if _, err := getLocation(db, id); err != nil {
		return err
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM containers WHERE location_id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("counting containers: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %d containers", types.ErrNotEmpty, n)
	}
	if _, err := db.Exec("DELETE FROM locations WHERE location_id = ?", id); err != nil {
		return fmt.Errorf("deleting location: %w", err)
	}
	return t.backend.persistLocations()
}

// Fetch returns locations ordered by name. Supported filter keys: name
// (string), limit and offset (int).
func (t *locationsTable) Fetch(filter map[string]any) ([]any, error) {
	where, tail, args, err := filterClause(filter, "name")
	if err != nil {
		return nil, err
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}
	locs, err := queryLocations(db, "SELECT "+locationColumns+" FROM locations"+where+" ORDER BY name"+tail, args...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(locs))
	for i, loc := range locs {
		out[i] = loc
	}
	return out, nil
}
