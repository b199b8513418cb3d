// Package selection tracks which positions of a location view are selected,
// where the keyboard focus is, and how clicks and arrow keys change both.
package selection

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/rackgrid/pkg/events"
	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// State summarizes the size of the selection.
type State int

// Selection states.
const (
	NoneSelected State = iota
	Single
	Multi
)

func (s State) String() string {
	switch s {
	case Single:
		return "single"
	case Multi:
		return "multi"
	default:
		return "none_selected"
	}
}

// Modifiers are the keys and buttons held during a user action.
type Modifiers struct {
	Ctrl  bool
	Shift bool
	Right bool // right mouse button
}

// Key is an arrow key.
type Key int

// Arrow keys.
const (
	KeyLeft Key = iota
	KeyRight
	KeyUp
	KeyDown
)

// noFocus marks an unset focus or anchor.
const noFocus = -1

// Model is the selection of one location view. Every mutating call that
// changes the selection or the focus publishes exactly one
// events.SelectionChanged.
type Model struct {
	locationID string
	shape      grid.Shape
	selected   map[int]bool
	focus      int
	anchor     int
	bus        *events.Bus
}

// New returns an empty selection over shape. bus may be nil.
func New(locationID string, shape grid.Shape, bus *events.Bus) *Model {
	return &Model{
		locationID: locationID,
		shape:      shape,
		selected:   make(map[int]bool),
		focus:      noFocus,
		anchor:     noFocus,
		bus:        bus,
	}
}

// Reset binds the model to another location view and clears the selection,
// the focus and the anchor.
func (m *Model) Reset(locationID string, shape grid.Shape) {
	m.locationID = locationID
	m.shape = shape
	m.selected = make(map[int]bool)
	m.focus = noFocus
	m.anchor = noFocus
	m.publish()
}

// Click applies a pointer click at pos.
//
// A right-click on an already selected position leaves the selection
// alone. Without modifiers the selection becomes {pos}. Ctrl toggles pos.
// Shift selects the rectangle between the anchor and pos, replacing the
// selection, or adding to it when ctrl is also held. Plain and ctrl clicks
// move the anchor to pos; shift clicks keep it.
func (m *Model) Click(pos int, mods Modifiers) error {
	if !m.shape.Contains(pos) {
		return fmt.Errorf("%w: %d", types.ErrOutOfBounds, pos)
	}
	if mods.Right && m.selected[pos] {
		return nil
	}

	switch {
	case mods.Shift:
		m.selectSpan(pos, mods.Ctrl)
	case mods.Ctrl:
		if m.selected[pos] {
			delete(m.selected, pos)
		} else {
			m.selected[pos] = true
		}
		m.anchor = pos
	default:
		m.selected = map[int]bool{pos: true}
		m.anchor = pos
	}
	m.focus = pos
	m.publish()
	return nil
}

// selectSpan selects the rectangle from the anchor (or the focus) to pos.
func (m *Model) selectSpan(pos int, additive bool) {
	from := m.anchor
	if from == noFocus {
		from = m.focus
	}
	if from == noFocus {
		from = pos
		m.anchor = pos
	}
	if !additive {
		m.selected = make(map[int]bool)
	}
	for _, p := range grid.Span(m.shape, from, pos) {
		m.selected[p] = true
	}
}

// Arrow moves the focus one position. Right and Left travel row-major,
// Down and Up column-major. Without modifiers the selection becomes the new
// focus; shift extends the span from the anchor; ctrl moves the focus only.
// With no focus yet, the first position gains focus.
func (m *Model) Arrow(key Key, mods Modifiers) {
	if m.shape.Size() == 0 {
		return
	}
	if m.focus == noFocus {
		m.focus = 0
	} else {
		dir, step := keyTravel(key)
		m.focus = grid.Next(m.shape, m.focus, dir, step)
	}

	switch {
	case mods.Shift:
		m.selectSpan(m.focus, mods.Ctrl)
	case mods.Ctrl:
	default:
		m.selected = map[int]bool{m.focus: true}
		m.anchor = m.focus
	}
	m.publish()
}

func keyTravel(key Key) (types.Direction, int) {
	switch key {
	case KeyLeft:
		return types.DirectionLeftRight, -1
	case KeyUp:
		return types.DirectionTopBottom, -1
	case KeyDown:
		return types.DirectionTopBottom, 1
	default:
		return types.DirectionLeftRight, 1
	}
}

// SelectAll selects every position 0..N-1 of the view. Focus and anchor
// are kept.
func (m *Model) SelectAll() {
	n := m.shape.Size()
	m.selected = make(map[int]bool, n)
	for p := 0; p < n; p++ {
		m.selected[p] = true
	}
	m.publish()
}

// Set replaces the selection with positions and moves focus and anchor to
// focus. Positions outside the view are rejected without mutation.
func (m *Model) Set(positions []int, focus int) error {
	return m.Bind(m.locationID, m.shape, positions, focus)
}

// Bind rebinds the model to a location view and replaces the selection in
// one step, publishing a single notification. Positions outside shape are
// rejected without mutation.
func (m *Model) Bind(locationID string, shape grid.Shape, positions []int, focus int) error {
	for _, p := range positions {
		if !shape.Contains(p) {
			return fmt.Errorf("%w: %d", types.ErrOutOfBounds, p)
		}
	}
	if focus != noFocus && !shape.Contains(focus) {
		return fmt.Errorf("%w: focus %d", types.ErrOutOfBounds, focus)
	}
	m.locationID = locationID
	m.shape = shape
	m.selected = make(map[int]bool, len(positions))
	for _, p := range positions {
		m.selected[p] = true
	}
	m.focus = focus
	m.anchor = focus
	m.publish()
	return nil
}

// Clear empties the selection. Focus is kept.
func (m *Model) Clear() {
	m.selected = make(map[int]bool)
	m.publish()
}

// LocationID returns the bound location.
func (m *Model) LocationID() string {
	return m.locationID
}

// Shape returns the bound view shape.
func (m *Model) Shape() grid.Shape {
	return m.shape
}

// Selected returns the selected positions in ascending order.
func (m *Model) Selected() []int {
	out := make([]int, 0, len(m.selected))
	for p := range m.selected {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Contains reports whether pos is selected.
func (m *Model) Contains(pos int) bool {
	return m.selected[pos]
}

// Focus returns the focus position and whether one is set.
func (m *Model) Focus() (int, bool) {
	return m.focus, m.focus != noFocus
}

// State returns NoneSelected, Single or Multi.
func (m *Model) State() State {
	switch len(m.selected) {
	case 0:
		return NoneSelected
	case 1:
		return Single
	default:
		return Multi
	}
}

func (m *Model) publish() {
	m.bus.Publish(events.Event{
		Kind:       events.SelectionChanged,
		LocationID: m.locationID,
		Positions:  m.Selected(),
		Focus:      m.focus,
	})
}
