package grid

import "github.com/mesh-intelligence/rackgrid/pkg/types"

// Shape is the navigable geometry of a location view. A bounded shape is a
// Rows x Cols grid; an unstructured shape is a line of Count positions.
type Shape struct {
	Rows  int
	Cols  int
	Count int
}

// ShapeOf returns the shape of loc when count containers are in view.
func ShapeOf(loc *types.Location, count int) Shape {
	if loc.Bounded() {
		return Shape{Rows: loc.Rows, Cols: loc.Cols, Count: count}
	}
	return Shape{Count: count}
}

// Bounded reports whether the shape is a grid.
func (s Shape) Bounded() bool {
	return s.Rows > 0 && s.Cols > 0
}

// Size returns the number of navigable positions.
func (s Shape) Size() int {
	if s.Bounded() {
		return s.Rows * s.Cols
	}
	return s.Count
}

// Contains reports whether pos is a navigable position.
func (s Shape) Contains(pos int) bool {
	return pos >= 0 && pos < s.Size()
}

// RowCol splits pos into row and column. An unstructured shape is a single
// column.
func (s Shape) RowCol(pos int) (row, col int) {
	if !s.Bounded() {
		return pos, 0
	}
	return pos / s.Cols, pos % s.Cols
}

// Span returns the positions of the inclusive rectangle spanned by a and b,
// in ascending order. For an unstructured shape it is the inclusive range.
func Span(s Shape, a, b int) []int {
	ra, ca := s.RowCol(a)
	rb, cb := s.RowCol(b)
	r0, r1 := minMax(ra, rb)
	c0, c1 := minMax(ca, cb)

	cols := s.Cols
	if !s.Bounded() {
		cols = 1
	}
	out := make([]int, 0, (r1-r0+1)*(c1-c0+1))
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			out = append(out, r*cols+c)
		}
	}
	return out
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
