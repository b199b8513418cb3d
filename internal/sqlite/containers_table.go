package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

var _ types.Table = (*containersTable)(nil)

// containersTable implements types.Table for *types.Container.
type containersTable struct {
	backend *Backend
}

// Get retrieves a container by ID.
func (t *containersTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}
	return getContainer(db, id)
}

// Set creates or updates a container. An empty id creates a container with
// a new UUID v7. A container placed in a location must fit there: the
// location must exist, have room, and for grid locations the slot given by
// its position or scanned label must be in bounds and free.
func (t *containersTable) Set(id string, data any) (string, error) {
	c, ok := data.(*types.Container)
	if !ok || c == nil {
		return "", types.ErrInvalidData
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	db, err := t.backend.conn()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if id == "" {
		if id, err = newID(); err != nil {
			return "", err
		}
		c.CreatedAt = now
	}
	c.ContainerID = id
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkPlacement(tx, c); err != nil {
		return "", err
	}

	rec := containerToJSON(c)
	locationID, position := nullable(c)
	_, err = tx.Exec(`INSERT INTO containers (`+containerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(container_id) DO UPDATE SET kind = excluded.kind, sample_count = excluded.sample_count,
location_id = excluded.location_id, position = excluded.position, scanned_label = excluded.scanned_label,
updated_at = excluded.updated_at`,
		rec.ContainerID, rec.Kind, rec.SampleCount, locationID, position, rec.ScannedLabel, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("persisting container: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing container: %w", err)
	}

	if err := t.backend.persistContainers(); err != nil {
		return "", err
	}
	return id, nil
}

// checkPlacement verifies that c fits in its location given every other
// container stored there.
func checkPlacement(q queryer, c *types.Container) error {
	if c.LocationID == "" {
		if c.Position != nil {
			return fmt.Errorf("%w: position without location", types.ErrInvalidData)
		}
		return nil
	}

	loc, err := snapshot(q, c.LocationID)
	if err != nil {
		return err
	}
	others := loc.Containers[:0]
	for _, o := range loc.Containers {
		if o.ContainerID != c.ContainerID {
			others = append(others, o)
		}
	}
	loc.Containers = others

	if loc.Scheme == types.SchemeNone {
		if loc.Capacity > 0 && len(others) >= loc.Capacity {
			return fmt.Errorf("%w: location %s is full", types.ErrOutOfBounds, loc.Name)
		}
		if p, ok := c.StoredPosition(); ok && p < 0 {
			return fmt.Errorf("%w: %d", types.ErrOutOfBounds, p)
		}
		return nil
	}

	slot, err := grid.SlotOf(c, loc)
	if err != nil {
		return fmt.Errorf("placing container in %s: %w", loc.Name, err)
	}
	if slot >= loc.Limit() {
		return fmt.Errorf("%w: slot %d of %s exceeds capacity %d", types.ErrOutOfBounds, slot, loc.Name, loc.Limit())
	}
	idx, _, err := grid.BuildIndex(loc)
	if err != nil {
		return err
	}
	if holder, taken := idx.At(slot); taken {
		return fmt.Errorf("%w: slot %d of %s held by %s", types.ErrOccupied, slot, loc.Name, holder.ContainerID)
	}
	return nil
}

// Delete removes a container.
func (t *containersTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	db, err := t.backend.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec("DELETE FROM containers WHERE container_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting container: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: container %s", types.ErrNotFound, id)
	}
	return t.backend.persistContainers()
}

// Fetch returns containers ordered by location and position. Supported
// filter keys: location_id and kind (string), limit and offset (int).
func (t *containersTable) Fetch(filter map[string]any) ([]any, error) {
	where, tail, args, err := filterClause(filter, "location_id", "kind")
	if err != nil {
		return nil, err
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.backend.conn()
	if err != nil {
		return nil, err
	}
	cs, err := queryContainers(db,
		"SELECT "+containerColumns+" FROM containers"+where+
			" ORDER BY location_id IS NULL, location_id, position IS NULL, position, container_id"+tail,
		args...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out, nil
}
