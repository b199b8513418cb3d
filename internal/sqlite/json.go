package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// locationJSON is a location record in locations.jsonl.
type locationJSON struct {
	LocationID       string `json:"location_id"`
	Name             string `json:"name"`
	GridRows         int    `json:"grid_rows"`
	GridCols         int    `json:"grid_cols"`
	Scheme           string `json:"scheme"`
	Capacity         int    `json:"capacity"`
	DefaultDirection string `json:"default_direction"`
	CreatedAt        string `json:"created_at"`
}

// containerJSON is a container record in containers.jsonl. LocationID and
// Position are null for a container that is not stored anywhere.
type containerJSON struct {
	ContainerID  string  `json:"container_id"`
	Kind         string  `json:"kind"`
	SampleCount  int     `json:"sample_count"`
	LocationID   *string `json:"location_id"`
	Position     *int    `json:"position"`
	ScannedLabel string  `json:"scanned_label"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// Column lists shared by every SELECT so hydrate functions scan in order.
const (
	locationColumns  = "location_id, name, grid_rows, grid_cols, scheme, capacity, default_direction, created_at"
	containerColumns = "container_id, kind, sample_count, location_id, position, scanned_label, created_at, updated_at"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateLocation(s scanner) (*types.Location, error) {
	var (
		loc       types.Location
		scheme    string
		direction string
		createdAt string
	)
	err := s.Scan(&loc.LocationID, &loc.Name, &loc.Rows, &loc.Cols, &scheme,
		&loc.Capacity, &direction, &createdAt)
	if err != nil {
		return nil, err
	}
	loc.Scheme = types.LabelingScheme(scheme)
	loc.DefaultDirection = types.Direction(direction)
	if loc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &loc, nil
}

func hydrateContainer(s scanner) (*types.Container, error) {
	var (
		c          types.Container
		locationID sql.NullString
		position   sql.NullInt64
		createdAt  string
		updatedAt  string
	)
	err := s.Scan(&c.ContainerID, &c.Kind, &c.SampleCount, &locationID, &position,
		&c.ScannedLabel, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.LocationID = locationID.String
	if position.Valid {
		p := int(position.Int64)
		c.Position = &p
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func locationToJSON(loc *types.Location) locationJSON {
	return locationJSON{
		LocationID:       loc.LocationID,
		Name:             loc.Name,
		GridRows:         loc.Rows,
		GridCols:         loc.Cols,
		Scheme:           string(loc.Scheme),
		Capacity:         loc.Capacity,
		DefaultDirection: string(loc.DefaultDirection),
		CreatedAt:        formatTime(loc.CreatedAt),
	}
}

func containerToJSON(c *types.Container) containerJSON {
	rec := containerJSON{
		ContainerID:  c.ContainerID,
		Kind:         c.Kind,
		SampleCount:  c.SampleCount,
		Position:     c.Position,
		ScannedLabel: c.ScannedLabel,
		CreatedAt:    formatTime(c.CreatedAt),
		UpdatedAt:    formatTime(c.UpdatedAt),
	}
	if c.LocationID != "" {
		id := c.LocationID
		rec.LocationID = &id
	}
	return rec
}

// nullable converts the optional columns of a container to SQL arguments.
func nullable(c *types.Container) (locationID, position any) {
	if c.LocationID != "" {
		locationID = c.LocationID
	}
	if p, ok := c.StoredPosition(); ok {
		position = p
	}
	return locationID, position
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
