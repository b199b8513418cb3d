package grid

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// Inconsistency reports a container that could not be placed in the index.
// It is not fatal: the index is still built from the remaining containers.
type Inconsistency struct {
	ContainerID string
	Position    int    // claimed position, -1 when none could be derived
	HolderID    string // container that kept the slot, for ErrDataInconsistency
	Err         error
}

// Error implements error.
func (i Inconsistency) Error() string {
	if i.HolderID != "" {
		return fmt.Sprintf("container %s: %v: position %d held by %s", i.ContainerID, i.Err, i.Position, i.HolderID)
	}
	return fmt.Sprintf("container %s: %v", i.ContainerID, i.Err)
}

// Unwrap returns the underlying sentinel error.
func (i Inconsistency) Unwrap() error {
	return i.Err
}

// Index maps positions of one location to the containers occupying them.
// An Index is immutable; rebuild it whenever the container set changes.
type Index struct {
	location *types.Location
	shape    Shape
	byPos    map[int]*types.Container
	byID     map[string]int
}

// BuildIndex indexes the containers of loc.
//
// For SchemeNone containers are ordered by raw position, then container ID,
// and receive dense view indices 0..k-1. For the grid schemes a container's
// position is its stored slot or, failing that, its decoded scanned label.
// When two containers claim the same slot the first one seen keeps it and
// the later one is dropped and reported.
//
// A nil location or a nil container is a programming error and is returned
// as an error.
func BuildIndex(loc *types.Location) (*Index, []Inconsistency, error) {
	if loc == nil {
		return nil, nil, types.ErrNilLocation
	}
	for _, c := range loc.Containers {
		if c == nil {
			return nil, nil, types.ErrNilContainer
		}
	}

	idx := &Index{
		location: loc,
		byPos:    make(map[int]*types.Container, len(loc.Containers)),
		byID:     make(map[string]int, len(loc.Containers)),
	}

	var issues []Inconsistency
	if loc.Scheme == types.SchemeNone {
		idx.indexView(loc.Containers)
	} else {
		issues = idx.indexSlots(loc)
	}
	idx.shape = ShapeOf(loc, len(idx.byPos))
	return idx, issues, nil
}

// indexView assigns dense view indices in (raw position, ID) order.
// Containers without a raw position sort after those with one.
func (idx *Index) indexView(containers []*types.Container) {
	ordered := append([]*types.Container(nil), containers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, oki := ordered[i].StoredPosition()
		pj, okj := ordered[j].StoredPosition()
		if oki != okj {
			return oki
		}
		if pi != pj {
			return pi < pj
		}
		return ordered[i].ContainerID < ordered[j].ContainerID
	})
	for i, c := range ordered {
		idx.byPos[i] = c
		idx.byID[c.ContainerID] = i
	}
}

func (idx *Index) indexSlots(loc *types.Location) []Inconsistency {
	var issues []Inconsistency
	for _, c := range loc.Containers {
		pos, err := SlotOf(c, loc)
		if err != nil {
			issues = append(issues, Inconsistency{ContainerID: c.ContainerID, Position: pos, Err: err})
			continue
		}
		if holder, taken := idx.byPos[pos]; taken {
			issues = append(issues, Inconsistency{
				ContainerID: c.ContainerID,
				Position:    pos,
				HolderID:    holder.ContainerID,
				Err:         types.ErrDataInconsistency,
			})
			continue
		}
		idx.byPos[pos] = c
		idx.byID[c.ContainerID] = pos
	}
	return issues
}

// SlotOf derives the slot of c inside a grid location from its stored
// position or, failing that, its scanned label.
func SlotOf(c *types.Container, loc *types.Location) (int, error) {
	if pos, ok := c.StoredPosition(); ok {
		if pos < 0 || pos >= loc.Slots() {
			return pos, types.ErrOutOfBounds
		}
		return pos, nil
	}
	if c.ScannedLabel == "" {
		return -1, types.ErrInvalidPositionFormat
	}
	pos, err := Decode(c.ScannedLabel, loc.Scheme, loc.Rows, loc.Cols)
	if err != nil {
		return -1, types.ErrInvalidPositionFormat
	}
	return pos, nil
}

// Location returns the indexed location snapshot.
func (idx *Index) Location() *types.Location {
	return idx.location
}

// Shape returns the navigable shape of the indexed view.
func (idx *Index) Shape() Shape {
	return idx.shape
}

// Len returns the number of indexed containers.
func (idx *Index) Len() int {
	return len(idx.byPos)
}

// At returns the container at pos.
func (idx *Index) At(pos int) (*types.Container, bool) {
	c, ok := idx.byPos[pos]
	return c, ok
}

// PositionOf returns the indexed position of the container with id.
func (idx *Index) PositionOf(id string) (int, bool) {
	pos, ok := idx.byID[id]
	return pos, ok
}

// Positions returns the occupied positions in ascending order.
func (idx *Index) Positions() []int {
	out := make([]int, 0, len(idx.byPos))
	for pos := range idx.byPos {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Containers returns the indexed containers in position order.
func (idx *Index) Containers() []*types.Container {
	positions := idx.Positions()
	out := make([]*types.Container, len(positions))
	for i, pos := range positions {
		out[i] = idx.byPos[pos]
	}
	return out
}

// Label encodes pos with the location's labeling scheme.
func (idx *Index) Label(pos int) (string, error) {
	return Encode(pos, idx.location.Scheme, idx.location.Rows, idx.location.Cols)
}
