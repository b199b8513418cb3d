package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// Snapshot returns the location with its current containers.
func (b *Backend) Snapshot(locationID string) (*types.Location, error) {
	if locationID == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	return snapshot(db, locationID)
}

// Commit applies a relocation batch in one transaction. Before writing
// anything it reloads every touched location and refuses the batch when a
// location no longer matches the fingerprint the plan was computed
// against (ErrStaleSnapshot), a container is no longer where the move says
// it is (ErrStaleSnapshot), a target lies outside its location
// (ErrOutOfBounds), is held by a container outside the batch (ErrOccupied)
// or is claimed twice (ErrDuplicateTarget).
func (b *Backend) Commit(req types.CommitRequest) error {
	if len(req.Moves) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.conn()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning commit: %w", err)
	}
	defer tx.Rollback()

	indexes := make(map[string]*grid.Index)
	for _, id := range req.LocationIDs() {
		loc, err := snapshot(tx, id)
		if err != nil {
			return err
		}
		if want, ok := req.Fingerprints[id]; ok && want != grid.Fingerprint(loc) {
			return fmt.Errorf("%w: %s", types.ErrStaleSnapshot, loc.Name)
		}
		idx, _, err := grid.BuildIndex(loc)
		if err != nil {
			return err
		}
		indexes[id] = idx
	}

	if err := validateMoves(req.Moves, indexes); err != nil {
		return err
	}
	orders, err := arrangeViews(req.Moves, indexes)
	if err != nil {
		return err
	}

	now := formatTime(time.Now())
	for _, m := range req.Moves {
		_, err := tx.Exec(
			"UPDATE containers SET location_id = ?, position = ?, scanned_label = '', updated_at = ? WHERE container_id = ?",
			m.ToLocation, m.ToPosition, now, m.ContainerID)
		if err != nil {
			return fmt.Errorf("moving container %s: %w", m.ContainerID, err)
		}
	}
	for _, order := range orders {
		for i, id := range order {
			_, err := tx.Exec(
				"UPDATE containers SET position = ?, updated_at = ? WHERE container_id = ? AND (position IS NULL OR position != ?)",
				i, now, id, i)
			if err != nil {
				return fmt.Errorf("renumbering container %s: %w", id, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing moves: %w", err)
	}
	return b.persistContainers()
}

// validateMoves checks every move against the current occupancy indexes.
func validateMoves(moves []types.Move, indexes map[string]*grid.Index) error {
	batch := make(map[string]bool, len(moves))
	for _, m := range moves {
		batch[m.ContainerID] = true
	}

	type slot struct {
		location string
		position int
	}
	claimed := make(map[slot]string, len(moves))
	for _, m := range moves {
		from, to := indexes[m.FromLocation], indexes[m.ToLocation]
		if from == nil || to == nil {
			return fmt.Errorf("%w: move of %s names no location", types.ErrInvalidData, m.ContainerID)
		}
		if pos, ok := from.PositionOf(m.ContainerID); !ok || pos != m.FromPosition {
			return fmt.Errorf("%w: container %s is not at %d", types.ErrStaleSnapshot, m.ContainerID, m.FromPosition)
		}

		limit := to.Location().Limit()
		if m.ToPosition < 0 || (limit > 0 && m.ToPosition >= limit) {
			return fmt.Errorf("%w: %d in %s", types.ErrOutOfBounds, m.ToPosition, to.Location().Name)
		}
		if holder, ok := to.At(m.ToPosition); ok && !batch[holder.ContainerID] {
			return fmt.Errorf("%w: %d in %s held by %s", types.ErrOccupied, m.ToPosition, to.Location().Name, holder.ContainerID)
		}
		key := slot{m.ToLocation, m.ToPosition}
		if other, ok := claimed[key]; ok {
			return fmt.Errorf("%w: %s and %s", types.ErrDuplicateTarget, other, m.ContainerID)
		}
		claimed[key] = m.ContainerID
	}
	return nil
}

// arrangeViews returns, per unstructured target location, the container IDs
// in the view order the batch produces. Each ID's index is written back as
// its raw position so the location re-indexes to the planned view.
// Containers leaving a location are not part of its arranged view.
func arrangeViews(moves []types.Move, indexes map[string]*grid.Index) (map[string][]string, error) {
	leaving := make(map[string]bool)
	targets := make(map[string]map[string]int)
	for _, m := range moves {
		if !m.SameLocation() {
			leaving[m.ContainerID] = true
		}
		if indexes[m.ToLocation].Location().Scheme != types.SchemeNone {
			continue
		}
		if targets[m.ToLocation] == nil {
			targets[m.ToLocation] = make(map[string]int)
		}
		targets[m.ToLocation][m.ContainerID] = m.ToPosition
	}

	orders := make(map[string][]string, len(targets))
	for id, t := range targets {
		idx := indexes[id]
		if remaining := without(idx.Location(), leaving); remaining != nil {
			var err error
			if idx, _, err = grid.BuildIndex(remaining); err != nil {
				return nil, err
			}
		}
		order, err := grid.Arrange(idx, t)
		if err != nil {
			return nil, err
		}
		orders[id] = order
	}
	return orders, nil
}

// without returns a copy of loc minus the leaving containers, or nil when
// none of them are in loc.
func without(loc *types.Location, leaving map[string]bool) *types.Location {
	kept := make([]*types.Container, 0, len(loc.Containers))
	for _, c := range loc.Containers {
		if !leaving[c.ContainerID] {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(loc.Containers) {
		return nil
	}
	cp := *loc
	cp.Containers = kept
	return &cp
}
