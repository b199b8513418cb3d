package grid

import (
	"fmt"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// ViewLimit returns the exclusive bound for drop targets in the view of a
// SchemeNone location when incoming containers join it: the current view
// length plus the newcomers. A drop may append to the view but never leave
// a gap. Grid locations return 0 since their bound is the location's Limit.
func ViewLimit(idx *Index, incoming int) int {
	if idx.location.Scheme != types.SchemeNone {
		return 0
	}
	return idx.Len() + incoming
}

// Arrange returns the container IDs of a SchemeNone location in view order
// after placing each container in targets (ID -> view index) at its target.
// Indexed containers not in targets keep their relative order and fill the
// remaining indices. Storing each returned ID's index as its raw position
// makes the next BuildIndex reproduce exactly this view.
//
// Targets must be distinct and lie inside the resulting view; otherwise
// Arrange returns ErrOutOfBounds or ErrDuplicateTarget.
func Arrange(idx *Index, targets map[string]int) ([]string, error) {
	var staying []string
	for _, c := range idx.Containers() {
		if _, moving := targets[c.ContainerID]; !moving {
			staying = append(staying, c.ContainerID)
		}
	}

	view := make([]string, len(staying)+len(targets))
	for id, pos := range targets {
		if pos < 0 || pos >= len(view) {
			return nil, fmt.Errorf("%w: view index %d of %d", types.ErrOutOfBounds, pos, len(view))
		}
		if view[pos] != "" {
			return nil, fmt.Errorf("%w: %s and %s at view index %d", types.ErrDuplicateTarget, view[pos], id, pos)
		}
		view[pos] = id
	}

	next := 0
	for i := range view {
		if view[i] == "" {
			view[i] = staying[next]
			next++
		}
	}
	return view, nil
}
