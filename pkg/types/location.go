package types

import (
	"fmt"
	"time"
)

// LabelingScheme maps a slot index to a human-readable label.
type LabelingScheme string

// Labeling schemes. A location with SchemeNone has no persisted slots; the
// position of a container there is a transient view index.
const (
	SchemeNone  LabelingScheme = "none"
	SchemeAlpha LabelingScheme = "alpha" // row letter + numeric column, e.g. "A1"
	SchemeNum   LabelingScheme = "num"   // numeric row-column, e.g. "1-1"
)

// validSchemes is the set of recognized labeling schemes.
var validSchemes = map[LabelingScheme]bool{
	SchemeNone:  true,
	SchemeAlpha: true,
	SchemeNum:   true,
}

// Valid reports whether s is a recognized labeling scheme.
func (s LabelingScheme) Valid() bool {
	return validSchemes[s]
}

// Direction is a traversal order for navigation and auto-placement.
type Direction string

// Travel directions.
const (
	DirectionLeftRight Direction = "left_right" // row-major
	DirectionTopBottom Direction = "top_bottom" // column-major
	DirectionPattern   Direction = "pattern"    // offset-preserving
)

// validDirections is the set of recognized travel directions.
var validDirections = map[Direction]bool{
	DirectionLeftRight: true,
	DirectionTopBottom: true,
	DirectionPattern:   true,
}

// Valid reports whether d is a recognized direction.
func (d Direction) Valid() bool {
	return validDirections[d]
}

// ParseDirection converts a config or flag value into a Direction.
// An empty string yields DirectionPattern.
func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return DirectionPattern, nil
	}
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: direction %q", ErrInvalidData, s)
	}
	return d, nil
}

// ParseScheme converts a config or flag value into a LabelingScheme.
// An empty string yields SchemeAlpha.
func ParseScheme(s string) (LabelingScheme, error) {
	if s == "" {
		return SchemeAlpha, nil
	}
	scheme := LabelingScheme(s)
	if !scheme.Valid() {
		return "", fmt.Errorf("%w: labeling scheme %q", ErrInvalidData, s)
	}
	return scheme, nil
}

// Location is a storage container-of-containers (rack, box, shelf) with a
// grid or list of slots. A Location loaded through Snapshotter carries its
// current container set and is treated as immutable for the duration of a
// relocation session.
type Location struct {
	LocationID       string         `json:"location_id"`
	Name             string         `json:"name"`
	Rows             int            `json:"rows"`     // 0 for unstructured locations.
	Cols             int            `json:"cols"`     // 0 for unstructured locations.
	Scheme           LabelingScheme `json:"scheme"`   // One of the Scheme constants.
	Capacity         int            `json:"capacity"` // Maximum slots in use; 0 means no limit.
	DefaultDirection Direction      `json:"default_direction"`
	CreatedAt        time.Time      `json:"created_at"`
	Containers       []*Container   `json:"-"`
}

// Bounded reports whether the location is a rows x cols grid.
func (l *Location) Bounded() bool {
	return l.Rows > 0 && l.Cols > 0
}

// Slots returns rows*cols for a bounded location and 0 otherwise.
func (l *Location) Slots() int {
	if !l.Bounded() {
		return 0
	}
	return l.Rows * l.Cols
}

// Limit returns the exclusive upper bound for positions in this location,
// or 0 when positions are unbounded (unstructured and not capacity-limited).
func (l *Location) Limit() int {
	limit := l.Slots()
	if l.Capacity > 0 && (limit == 0 || l.Capacity < limit) {
		limit = l.Capacity
	}
	return limit
}

// Direction returns the default travel direction, falling back to
// DirectionLeftRight when none is configured.
func (l *Location) Direction() Direction {
	if l.DefaultDirection == "" {
		return DirectionLeftRight
	}
	return l.DefaultDirection
}

// Validate checks the location's geometry and variants. It returns
// ErrInvalidName or a wrapped ErrInvalidData on failure.
func (l *Location) Validate() error {
	if l.Name == "" {
		return ErrInvalidName
	}
	if l.Rows < 0 || l.Cols < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidData, l.Rows, l.Cols)
	}
	if (l.Rows == 0) != (l.Cols == 0) {
		return fmt.Errorf("%w: rows and cols must both be set or both be zero", ErrInvalidData)
	}
	if !l.Scheme.Valid() {
		return fmt.Errorf("%w: labeling scheme %q", ErrInvalidData, l.Scheme)
	}
	if l.Scheme != SchemeNone && !l.Bounded() {
		return fmt.Errorf("%w: scheme %s requires a grid", ErrInvalidData, l.Scheme)
	}
	if l.Capacity < 0 {
		return fmt.Errorf("%w: negative capacity", ErrInvalidData)
	}
	if l.DefaultDirection != "" && !l.DefaultDirection.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidData, l.DefaultDirection)
	}
	return nil
}
