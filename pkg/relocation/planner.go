package relocation

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/rackgrid/pkg/events"
	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// Status is the outcome of planning a batch.
type Status string

// Plan statuses.
const (
	Accepted Status = "accepted"
	Rejected Status = "rejected"
)

// Reason explains why a container could not be given its target.
type Reason string

// Rejection reasons. ReasonNone marks a valid assignment.
const (
	ReasonNone            Reason = ""
	ReasonOutOfBounds     Reason = "OUT_OF_BOUNDS"
	ReasonOccupied        Reason = "OCCUPIED"
	ReasonDuplicateTarget Reason = "DUPLICATE_TARGET"
)

// Item is one container of a batch together with where it is picked up
// from. FromPosition is the view position in the origin location.
type Item struct {
	Container    *types.Container
	FromLocation string
	FromPosition int
}

// Request describes one planning pass.
type Request struct {
	Items     []Item
	Target    *grid.Index    // index over the target location snapshot
	Anchor    int            // target position the pointer is over
	Offsets   map[string]int // optional container ID -> offset from Anchor
	Direction types.Direction
}

// Assignment is the proposed target of one container.
type Assignment struct {
	Item
	Target     int // -1 when the target lies outside the location
	Reason     Reason
	ConflictID string // container holding the target, for ReasonOccupied and ReasonDuplicateTarget
	NoOp       bool   // target equals the current location and position
}

// Valid reports whether the assignment has no rejection reason.
func (a Assignment) Valid() bool {
	return a.Reason == ReasonNone
}

// Plan is the read-only result of planning a batch. Assignments are in
// request order.
type Plan struct {
	LocationID  string
	Direction   types.Direction
	Anchor      int
	Assignments []Assignment
	Status      Status
}

// Accepted reports whether every container received a distinct valid
// target.
func (p *Plan) Accepted() bool {
	return p.Status == Accepted
}

// Rejections returns the assignments that carry a rejection reason.
func (p *Plan) Rejections() []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if !a.Valid() {
			out = append(out, a)
		}
	}
	return out
}

// Targets returns the target position of every assignment in request
// order.
func (p *Plan) Targets() []int {
	out := make([]int, len(p.Assignments))
	for i, a := range p.Assignments {
		out[i] = a.Target
	}
	return out
}

// Preview returns one cell per in-range target position. A rejected plan
// marks every cell invalid since none of it will be applied.
func (p *Plan) Preview() []events.Cell {
	cells := make([]events.Cell, 0, len(p.Assignments))
	seen := make(map[int]bool, len(p.Assignments))
	for _, a := range p.Assignments {
		if a.Target < 0 || seen[a.Target] {
			continue
		}
		seen[a.Target] = true
		cells = append(cells, events.Cell{
			Position: a.Target,
			Valid:    p.Accepted() && a.Valid(),
		})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Position < cells[j].Position })
	return cells
}

// Err returns nil for an accepted plan. For a rejected plan it returns an
// error wrapping ErrOutOfBounds, ErrOccupied or ErrDuplicateTarget for the
// first rejected assignment.
func (p *Plan) Err() error {
	if p.Accepted() {
		return nil
	}
	for _, a := range p.Rejections() {
		var sentinel error
		switch a.Reason {
		case ReasonOutOfBounds:
			sentinel = types.ErrOutOfBounds
		case ReasonOccupied:
			sentinel = types.ErrOccupied
		default:
			sentinel = types.ErrDuplicateTarget
		}
		if a.ConflictID != "" {
			return fmt.Errorf("%w: container %s (held by %s)", sentinel, a.Container.ContainerID, a.ConflictID)
		}
		return fmt.Errorf("%w: container %s", sentinel, a.Container.ContainerID)
	}
	return fmt.Errorf("%w: plan rejected", types.ErrInvalidTransition)
}

// viewTargets maps each moving container to its target, skipping no-ops.
func (p *Plan) viewTargets() map[string]int {
	targets := make(map[string]int, len(p.Assignments))
	for _, a := range p.Assignments {
		if !a.NoOp {
			targets[a.Container.ContainerID] = a.Target
		}
	}
	return targets
}

// Moves returns the moves of an accepted plan, skipping no-ops. A rejected
// plan has no moves.
func (p *Plan) Moves() []types.Move {
	if !p.Accepted() {
		return nil
	}
	var out []types.Move
	for _, a := range p.Assignments {
		if a.NoOp {
			continue
		}
		out = append(out, types.Move{
			ContainerID:  a.Container.ContainerID,
			FromLocation: a.FromLocation,
			FromPosition: a.FromPosition,
			ToLocation:   p.LocationID,
			ToPosition:   a.Target,
		})
	}
	return out
}

// Planner computes relocation plans. The zero value plans with the target
// location's default direction.
type Planner struct {
	// Direction, when set, overrides the target location's default.
	Direction types.Direction
}

// Plan computes and validates the target of every container in req.
//
// Targets come from the explicit offset of a container when one is given,
// otherwise from the travel direction: PATTERN keeps the batch's shape
// relative to its smallest origin, LEFT_RIGHT and TOP_BOTTOM fill
// consecutive positions from the anchor in origin order. The plan is
// accepted only when every target is in bounds, not held by a container
// outside the batch and not claimed twice. A container whose target is its
// current position is always valid. In a SchemeNone location a target
// must also lie inside the view once the batch has joined it, so a drop can
// append to the view but cannot leave a gap.
//
// An empty batch or a nil container returns ErrNilContainer; a nil target
// returns ErrNilLocation.
func (pl Planner) Plan(req Request) (*Plan, error) {
	if len(req.Items) == 0 {
		return nil, types.ErrNilContainer
	}
	for _, it := range req.Items {
		if it.Container == nil {
			return nil, types.ErrNilContainer
		}
	}
	if req.Target == nil || req.Target.Location() == nil {
		return nil, types.ErrNilLocation
	}

	loc := req.Target.Location()
	dir := req.Direction
	if dir == "" {
		dir = pl.Direction
	}
	if dir == "" {
		dir = loc.Direction()
	}

	plan := &Plan{
		LocationID:  loc.LocationID,
		Direction:   dir,
		Anchor:      req.Anchor,
		Assignments: make([]Assignment, len(req.Items)),
	}
	targets := computeTargets(req, dir)
	for i, it := range req.Items {
		plan.Assignments[i] = Assignment{
			Item:   it,
			Target: targets[i],
			NoOp:   it.FromLocation == loc.LocationID && it.FromPosition == targets[i],
		}
	}
	validate(plan, req.Target)

	plan.Status = Accepted
	for _, a := range plan.Assignments {
		if !a.Valid() {
			plan.Status = Rejected
			break
		}
	}
	return plan, nil
}

// computeTargets returns the raw target of every item in request order.
// A target of -1 means the item ran off the location.
func computeTargets(req Request, dir types.Direction) []int {
	targets := make([]int, len(req.Items))
	origins := make([]int, len(req.Items))
	for i, it := range req.Items {
		origins[i] = it.FromPosition
	}
	minOrigin := grid.MinOrigin(origins)

	var sequential []int
	for i, it := range req.Items {
		if off, ok := req.Offsets[it.Container.ContainerID]; ok {
			targets[i] = req.Anchor + off
			continue
		}
		if dir == types.DirectionPattern {
			targets[i] = grid.PatternTarget(req.Anchor, it.FromPosition, minOrigin)
			continue
		}
		sequential = append(sequential, i)
	}
	if len(sequential) == 0 {
		return targets
	}

	// Fill consecutive positions in origin order.
	sort.SliceStable(sequential, func(a, b int) bool {
		ia, ib := req.Items[sequential[a]], req.Items[sequential[b]]
		if ia.FromPosition != ib.FromPosition {
			return ia.FromPosition < ib.FromPosition
		}
		return ia.Container.ContainerID < ib.Container.ContainerID
	})
	shape := req.Target.Shape()
	pos := req.Anchor
	for n, i := range sequential {
		if n > 0 && pos >= 0 {
			pos = step(shape, pos, dir)
		}
		targets[i] = pos
	}
	return targets
}

// step advances one position in a bounded shape and counts upward in an
// unstructured one, where the location's limit is checked later.
func step(shape grid.Shape, pos int, dir types.Direction) int {
	if !shape.Bounded() {
		return pos + 1
	}
	next, ok := grid.Advance(shape, pos, dir, 1)
	if !ok {
		return -1
	}
	return next
}

// validate sets the reason of every assignment in place.
func validate(plan *Plan, idx *grid.Index) {
	limit := idx.Location().Limit()
	batch := make(map[string]bool, len(plan.Assignments))
	incoming := 0
	for _, a := range plan.Assignments {
		batch[a.Container.ContainerID] = true
		if _, ok := idx.PositionOf(a.Container.ContainerID); !ok {
			incoming++
		}
	}
	if view := grid.ViewLimit(idx, incoming); view > 0 && (limit == 0 || view < limit) {
		limit = view
	}

	claimed := make(map[int][]int)
	for i := range plan.Assignments {
		a := &plan.Assignments[i]
		if a.NoOp {
			claimed[a.Target] = append(claimed[a.Target], i)
			continue
		}
		if a.Target < 0 || (limit > 0 && a.Target >= limit) {
			a.Reason = ReasonOutOfBounds
			continue
		}
		if holder, ok := idx.At(a.Target); ok && !batch[holder.ContainerID] {
			a.Reason = ReasonOccupied
			a.ConflictID = holder.ContainerID
			continue
		}
		claimed[a.Target] = append(claimed[a.Target], i)
	}

	for _, members := range claimed {
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			a := &plan.Assignments[i]
			if a.NoOp {
				continue
			}
			a.Reason = ReasonDuplicateTarget
			a.ConflictID = firstOther(plan, members, i)
		}
	}
}

func firstOther(plan *Plan, members []int, self int) string {
	for _, i := range members {
		if i != self {
			return plan.Assignments[i].Container.ContainerID
		}
	}
	return ""
}
