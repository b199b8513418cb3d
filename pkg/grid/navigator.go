package grid

import "github.com/mesh-intelligence/rackgrid/pkg/types"

// Advance moves step positions from pos in direction without clamping.
// LEFT_RIGHT travels row-major and PATTERN behaves like LEFT_RIGHT for a
// single cell; TOP_BOTTOM travels column-major. Running off the last column
// or row wraps to the next row or column. ok is false when the step leaves
// the shape; the returned position is then -1.
func Advance(s Shape, pos int, dir types.Direction, step int) (int, bool) {
	size := s.Size()
	if !s.Contains(pos) {
		return -1, false
	}

	if dir == types.DirectionTopBottom && s.Bounded() {
		row, col := s.RowCol(pos)
		k := col*s.Rows + row + step
		if k < 0 || k >= size {
			return -1, false
		}
		return (k%s.Rows)*s.Cols + k/s.Rows, true
	}

	target := pos + step
	if target < 0 || target >= size {
		return -1, false
	}
	return target, true
}

// Next returns the position step positions from pos in direction. Stepping
// past the final cell clamps to the last valid position and stepping before
// the first clamps to 0; travel never wraps around the whole grid. An empty
// shape returns pos unchanged.
func Next(s Shape, pos int, dir types.Direction, step int) int {
	size := s.Size()
	if size == 0 {
		return pos
	}
	pos = clamp(pos, 0, size-1)
	if target, ok := Advance(s, pos, dir, step); ok {
		return target
	}
	if step < 0 {
		return 0
	}
	return size - 1
}

// PatternTarget places origin relative to anchor so that a batch keeps its
// shape: anchor + (origin - minOrigin).
func PatternTarget(anchor, origin, minOrigin int) int {
	return anchor + (origin - minOrigin)
}

// MinOrigin returns the smallest origin, or 0 for an empty batch.
func MinOrigin(origins []int) int {
	if len(origins) == 0 {
		return 0
	}
	m := origins[0]
	for _, o := range origins[1:] {
		if o < m {
			m = o
		}
	}
	return m
}

// PatternOffsets returns origin - min(origins) for each origin, in input
// order.
func PatternOffsets(origins []int) []int {
	m := MinOrigin(origins)
	out := make([]int, len(origins))
	for i, o := range origins {
		out[i] = o - m
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
