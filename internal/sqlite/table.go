package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// conn returns the database handle, or ErrCabinetDetached.
// The caller must hold b.mu.
func (b *Backend) conn() (*sql.DB, error) {
	if !b.attached {
		return nil, types.ErrCabinetDetached
	}
	return b.db, nil
}

func getLocation(q queryer, id string) (*types.Location, error) {
	loc, err := hydrateLocation(q.QueryRow("SELECT "+locationColumns+" FROM locations WHERE location_id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: location %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting location %s: %w", id, err)
	}
	return loc, nil
}

func getContainer(q queryer, id string) (*types.Container, error) {
	c, err := hydrateContainer(q.QueryRow("SELECT "+containerColumns+" FROM containers WHERE container_id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: container %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting container %s: %w", id, err)
	}
	return c, nil
}

func queryLocations(q queryer, query string, args ...any) ([]*types.Location, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var out []*types.Location
	for rows.Next() {
		loc, err := hydrateLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func queryContainers(q queryer, query string, args ...any) ([]*types.Container, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying containers: %w", err)
	}
	defer rows.Close()

	var out []*types.Container
	for rows.Next() {
		c, err := hydrateContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating container: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// containersIn returns the containers stored in a location ordered by
// position, then ID.
func containersIn(q queryer, locationID string) ([]*types.Container, error) {
	return queryContainers(q,
		"SELECT "+containerColumns+" FROM containers WHERE location_id = ? ORDER BY position IS NULL, position, container_id",
		locationID)
}

// snapshot loads a location with its containers.
func snapshot(q queryer, id string) (*types.Location, error) {
	loc, err := getLocation(q, id)
	if err != nil {
		return nil, err
	}
	if loc.Containers, err = containersIn(q, id); err != nil {
		return nil, err
	}
	return loc, nil
}

// persistLocations rewrites locations.jsonl from the locations table.
func (b *Backend) persistLocations() error {
	locs, err := queryLocations(b.db, "SELECT "+locationColumns+" FROM locations ORDER BY created_at, location_id")
	if err != nil {
		return err
	}
	records := make([]locationJSON, len(locs))
	for i, loc := range locs {
		records[i] = locationToJSON(loc)
	}
	if err := writeJSONL(b.dataPath(locationsFile), records); err != nil {
		return fmt.Errorf("persisting %s: %w", locationsFile, err)
	}
	return nil
}

// persistContainers rewrites containers.jsonl from the containers table.
func (b *Backend) persistContainers() error {
	cs, err := queryContainers(b.db, "SELECT "+containerColumns+" FROM containers ORDER BY created_at, container_id")
	if err != nil {
		return err
	}
	records := make([]containerJSON, len(cs))
	for i, c := range cs {
		records[i] = containerToJSON(c)
	}
	if err := writeJSONL(b.dataPath(containersFile), records); err != nil {
		return fmt.Errorf("persisting %s: %w", containersFile, err)
	}
	return nil
}

// filterClause builds the WHERE clause and the LIMIT/OFFSET tail for a
// filter. The listed keys are string equality conditions; limit and offset
// must be ints.
func filterClause(filter map[string]any, keys ...string) (where, tail string, args []any, err error) {
	var conds []string
	for _, key := range keys {
		v, ok := filter[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", "", nil, fmt.Errorf("%w: %s", types.ErrInvalidFilter, key)
		}
		conds = append(conds, key+" = ?")
		args = append(args, s)
	}
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	limit, offset := -1, 0
	for key, dst := range map[string]*int{"limit": &limit, "offset": &offset} {
		v, ok := filter[key]
		if !ok {
			continue
		}
		n, ok := v.(int)
		if !ok {
			return "", "", nil, fmt.Errorf("%w: %s", types.ErrInvalidFilter, key)
		}
		if n > 0 {
			*dst = n
		}
	}
	if limit > 0 || offset > 0 {
		tail = fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return where, tail, args, nil
}
