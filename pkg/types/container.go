package types

import (
	"fmt"
	"time"
)

// Container kinds.
const (
	KindTube     = "tube"
	KindPlate    = "plate"
	KindCassette = "cassette"
	KindSlide    = "slide"
)

// validKinds is the set of recognized container kinds.
var validKinds = map[string]bool{
	KindTube:     true,
	KindPlate:    true,
	KindCassette: true,
	KindSlide:    true,
}

// ValidKind reports whether kind is a recognized container kind.
func ValidKind(kind string) bool {
	return validKinds[kind]
}

// Container is a vessel holding one or more biosamples. It belongs to at most
// one location and occupies at most one slot there.
type Container struct {
	ContainerID  string    `json:"container_id"`  // UUID v7, generated on creation.
	Kind         string    `json:"kind"`          // One of the Kind constants.
	SampleCount  int       `json:"sample_count"`  // Number of biosamples held, at least 1.
	LocationID   string    `json:"location_id"`   // Empty when the container is not stored.
	Position     *int      `json:"position"`      // Stored slot; raw ordering value for SchemeNone.
	ScannedLabel string    `json:"scanned_label"` // Optional label read from the rack, e.g. "B2".
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Place sets the container's location and stored slot. The scanned label
// describes the previous slot, so it is cleared.
func (c *Container) Place(locationID string, pos int) {
	p := pos
	c.LocationID = locationID
	c.Position = &p
	c.ScannedLabel = ""
	c.UpdatedAt = time.Now()
}

// StoredPosition returns the stored slot and whether one is set.
func (c *Container) StoredPosition() (int, bool) {
	if c.Position == nil {
		return 0, false
	}
	return *c.Position, true
}

// Clone returns a deep copy of the container.
func (c *Container) Clone() *Container {
	cp := *c
	if c.Position != nil {
		p := *c.Position
		cp.Position = &p
	}
	return &cp
}

// Validate checks the container's kind and sample count.
func (c *Container) Validate() error {
	if !ValidKind(c.Kind) {
		return fmt.Errorf("%w: container kind %q", ErrInvalidData, c.Kind)
	}
	if c.SampleCount < 1 {
		return fmt.Errorf("%w: container must hold at least one sample", ErrInvalidData)
	}
	return nil
}
