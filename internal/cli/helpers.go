package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// findLocation resolves a location by ID or, failing that, by name.
func findLocation(store types.Store, ref string) (*types.Location, error) {
	locations, err := store.GetTable(types.TableLocations)
	if err != nil {
		return nil, sysErr(err)
	}
	got, err := locations.Get(ref)
	if err == nil {
		return got.(*types.Location), nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	byName, err := locations.Fetch(map[string]any{"name": ref})
	if err != nil {
		return nil, err
	}
	if len(byName) == 0 {
		return nil, fmt.Errorf("%w: location %q", types.ErrNotFound, ref)
	}
	return byName[0].(*types.Location), nil
}

// parseSlot reads a slot given either as a label of loc's scheme or as a
// 0-based index prefixed with '#'.
func parseSlot(loc *types.Location, s string) (int, error) {
	if rest, ok := strings.CutPrefix(s, "#"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", types.ErrInvalidPositionFormat, s)
		}
		return n, nil
	}
	return grid.Decode(s, loc.Scheme, loc.Rows, loc.Cols)
}

// slotLabel renders pos for display, falling back to #pos when pos has no
// label in loc.
func slotLabel(loc *types.Location, pos int) string {
	if label, err := grid.Encode(pos, loc.Scheme, loc.Rows, loc.Cols); err == nil {
		return label
	}
	return "#" + strconv.Itoa(pos)
}
