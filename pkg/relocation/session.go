package relocation

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/rackgrid/pkg/events"
	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/selection"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// State is a step of the drag gesture.
type State int

// Session states. Committed and Cancelled are transient: the session
// returns to Idle once the outcome has been published.
const (
	Idle State = iota
	Dragging
	Previewing
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Previewing:
		return "previewing"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Options configure a Session.
type Options struct {
	// Direction overrides the target location's default travel direction.
	Direction types.Direction
	// Logger receives session diagnostics. Nil discards them.
	Logger *slog.Logger
	// Now stamps moved containers. Nil uses time.Now.
	Now func() time.Time
}

// view is one loaded location snapshot and its occupancy index.
type view struct {
	loc *types.Location
	idx *grid.Index
}

// Session drives drag gestures over a set of location snapshots. It is used
// from a single interaction thread.
type Session struct {
	committer types.Committer
	bus       *events.Bus
	planner   Planner
	log       *slog.Logger
	now       func() time.Time

	views map[string]*view
	state State

	// Per-gesture state, cleared on return to Idle.
	sourceID     string
	items        []Item
	fingerprints map[string]string
	plan         *Plan
}

// NewSession returns an idle session that hands accepted plans to
// committer and publishes on bus. bus may be nil.
func NewSession(committer types.Committer, bus *events.Bus, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		committer: committer,
		bus:       bus,
		planner:   Planner{Direction: opts.Direction},
		log:       log,
		now:       now,
		views:     make(map[string]*view),
	}
}

// State returns the current gesture state.
func (s *Session) State() State {
	return s.state
}

// Plan returns the most recent plan of the current gesture, or nil.
func (s *Session) Plan() *Plan {
	return s.plan
}

// Load adds or replaces the snapshot of a location and rebuilds its index.
// Containers that cannot be placed are reported, logged and published as
// events.Inconsistency; they do not fail the load. Loading is refused while
// a gesture is in progress.
func (s *Session) Load(loc *types.Location) ([]grid.Inconsistency, error) {
	if s.state != Idle {
		return nil, fmt.Errorf("%w: load while %s", types.ErrInvalidTransition, s.state)
	}
	return s.install(loc)
}

func (s *Session) install(loc *types.Location) ([]grid.Inconsistency, error) {
	idx, issues, err := grid.BuildIndex(loc)
	if err != nil {
		return nil, err
	}
	s.views[loc.LocationID] = &view{loc: loc, idx: idx}
	for _, issue := range issues {
		s.log.Warn("container not placed",
			"location", loc.LocationID,
			"container", issue.ContainerID,
			"position", issue.Position,
			"err", issue.Err)
		s.bus.Publish(events.Event{
			Kind:       events.Inconsistency,
			LocationID: loc.LocationID,
			Positions:  []int{issue.Position},
			Focus:      -1,
			Err:        issue,
		})
	}
	return issues, nil
}

// Index returns the occupancy index of a loaded location.
func (s *Session) Index(locationID string) (*grid.Index, error) {
	v, ok := s.views[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: location %s not loaded", types.ErrNotFound, locationID)
	}
	return v.idx, nil
}

// Begin picks up the containers at the selected positions of sel.
// Selected positions without a container are ignored; a selection without
// any container returns ErrNilContainer.
func (s *Session) Begin(sel *selection.Model) error {
	if s.state != Idle {
		return fmt.Errorf("%w: begin while %s", types.ErrInvalidTransition, s.state)
	}
	v, ok := s.views[sel.LocationID()]
	if !ok {
		return fmt.Errorf("%w: location %s not loaded", types.ErrNotFound, sel.LocationID())
	}

	var items []Item
	var picked []int
	for _, pos := range sel.Selected() {
		c, ok := v.idx.At(pos)
		if !ok {
			continue
		}
		items = append(items, Item{Container: c, FromLocation: v.loc.LocationID, FromPosition: pos})
		picked = append(picked, pos)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: nothing selected to drag", types.ErrNilContainer)
	}

	s.sourceID = v.loc.LocationID
	s.items = items
	s.fingerprints = map[string]string{v.loc.LocationID: grid.Fingerprint(v.loc)}
	s.state = Dragging
	s.log.Debug("drag started", "location", s.sourceID, "containers", len(items))
	s.bus.Publish(events.Event{
		Kind:       events.DragStarted,
		LocationID: s.sourceID,
		Positions:  picked,
		Focus:      -1,
	})
	return nil
}

// Hover recomputes the plan for the pointer over anchor in the target
// location and publishes its preview. offsets, when non-nil, give explicit
// per-container offsets from anchor.
func (s *Session) Hover(targetID string, anchor int, offsets map[string]int) (*Plan, error) {
	if s.state != Dragging && s.state != Previewing {
		return nil, fmt.Errorf("%w: hover while %s", types.ErrInvalidTransition, s.state)
	}
	v, ok := s.views[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: location %s not loaded", types.ErrNotFound, targetID)
	}

	plan, err := s.planner.Plan(Request{
		Items:   s.items,
		Target:  v.idx,
		Anchor:  anchor,
		Offsets: offsets,
	})
	if err != nil {
		return nil, err
	}
	s.fingerprints[targetID] = grid.Fingerprint(v.loc)
	s.plan = plan
	s.state = Previewing
	s.bus.Publish(events.Event{
		Kind:       events.PlanPreviewed,
		LocationID: targetID,
		Positions:  plan.Targets(),
		Focus:      anchor,
		Preview:    plan.Preview(),
	})
	return plan, nil
}

// Drop ends the gesture on the last previewed plan.
//
// A rejected plan cancels the gesture and returns the rejection as an
// error wrapping ErrOutOfBounds, ErrOccupied or ErrDuplicateTarget. An
// accepted plan is handed to the committer; if the committer refuses, the
// gesture is cancelled and nothing changes. Otherwise every moved container
// takes its new location and position in the snapshots, the affected
// indices are rebuilt and sel is set to the moved containers.
func (s *Session) Drop(sel *selection.Model) (*Plan, error) {
	if s.state != Previewing {
		return nil, fmt.Errorf("%w: drop while %s", types.ErrInvalidTransition, s.state)
	}
	plan := s.plan

	if !plan.Accepted() {
		err := plan.Err()
		s.cancel(plan.LocationID, err)
		return plan, err
	}

	moves := plan.Moves()
	if len(moves) > 0 {
		req := types.CommitRequest{Moves: moves, Fingerprints: s.involvedFingerprints(plan.LocationID)}
		if err := s.committer.Commit(req); err != nil {
			s.cancel(plan.LocationID, err)
			return plan, fmt.Errorf("commit refused: %w", err)
		}
		if err := s.apply(plan); err != nil {
			// The committer has already applied the batch; the snapshots
			// are reloaded by the caller.
			s.cancel(plan.LocationID, err)
			return plan, err
		}
	}

	target := s.views[plan.LocationID]
	moved := make([]int, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		if pos, ok := target.idx.PositionOf(a.Container.ContainerID); ok {
			moved = append(moved, pos)
		}
	}
	if sel != nil {
		focus := -1
		if len(moved) > 0 {
			focus = moved[0]
		}
		if err := sel.Bind(plan.LocationID, target.idx.Shape(), moved, focus); err != nil {
			s.log.Warn("selection not restored", "location", plan.LocationID, "err", err)
		}
	}

	s.state = Committed
	s.log.Info("relocation committed",
		"from", s.sourceID,
		"to", plan.LocationID,
		"moves", len(moves),
		"direction", plan.Direction)
	s.bus.Publish(events.Event{
		Kind:       events.Committed,
		LocationID: plan.LocationID,
		Positions:  moved,
		Focus:      -1,
	})
	s.reset()
	return plan, nil
}

// Cancel aborts the gesture without changing anything.
func (s *Session) Cancel() error {
	if s.state != Dragging && s.state != Previewing {
		return fmt.Errorf("%w: cancel while %s", types.ErrInvalidTransition, s.state)
	}
	locationID := s.sourceID
	if s.plan != nil {
		locationID = s.plan.LocationID
	}
	s.cancel(locationID, nil)
	return nil
}

func (s *Session) cancel(locationID string, cause error) {
	s.state = Cancelled
	s.log.Debug("drag cancelled", "location", locationID, "err", cause)
	s.bus.Publish(events.Event{
		Kind:       events.Cancelled,
		LocationID: locationID,
		Focus:      -1,
		Err:        cause,
	})
	s.reset()
}

func (s *Session) reset() {
	s.state = Idle
	s.sourceID = ""
	s.items = nil
	s.fingerprints = nil
	s.plan = nil
}

func (s *Session) involvedFingerprints(targetID string) map[string]string {
	out := map[string]string{s.sourceID: s.fingerprints[s.sourceID]}
	out[targetID] = s.fingerprints[targetID]
	return out
}

// apply writes the plan into copies of the source and target snapshots and
// installs them.
func (s *Session) apply(plan *Plan) error {
	now := s.now()
	target := cloneLocation(s.views[plan.LocationID].loc)
	var source *types.Location
	if s.sourceID != plan.LocationID {
		source = cloneLocation(s.views[s.sourceID].loc)
	}

	var order []string
	if target.Scheme == types.SchemeNone {
		var err error
		if order, err = grid.Arrange(s.views[plan.LocationID].idx, plan.viewTargets()); err != nil {
			return err
		}
	}

	for _, a := range plan.Assignments {
		if a.NoOp {
			continue
		}
		id := a.Container.ContainerID
		var c *types.Container
		if source != nil {
			c = removeContainer(source, id)
			if c != nil {
				target.Containers = append(target.Containers, c)
			}
		} else {
			c = findContainer(target, id)
		}
		if c == nil {
			return fmt.Errorf("%w: container %s missing from snapshot", types.ErrDataInconsistency, id)
		}
		c.Place(plan.LocationID, a.Target)
		c.UpdatedAt = now
	}
	renumber(target, order, now)

	if source != nil {
		if _, err := s.install(source); err != nil {
			return err
		}
	}
	_, err := s.install(target)
	return err
}

// renumber stores each container's view index as its raw position, so the
// next index of loc reproduces order.
func renumber(loc *types.Location, order []string, now time.Time) {
	for i, id := range order {
		c := findContainer(loc, id)
		if c == nil {
			continue
		}
		if p, ok := c.StoredPosition(); ok && p == i {
			continue
		}
		pos := i
		c.Position = &pos
		c.UpdatedAt = now
	}
}

func cloneLocation(loc *types.Location) *types.Location {
	cp := *loc
	cp.Containers = make([]*types.Container, len(loc.Containers))
	for i, c := range loc.Containers {
		cp.Containers[i] = c.Clone()
	}
	return &cp
}

func findContainer(loc *types.Location, id string) *types.Container {
	for _, c := range loc.Containers {
		if c.ContainerID == id {
			return c
		}
	}
	return nil
}

func removeContainer(loc *types.Location, id string) *types.Container {
	for i, c := range loc.Containers {
		if c.ContainerID == id {
			loc.Containers = append(loc.Containers[:i], loc.Containers[i+1:]...)
			return c
		}
	}
	return nil
}
