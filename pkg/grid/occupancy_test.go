package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func slot(id string, pos int) *types.Container {
	p := pos
	return &types.Container{ContainerID: id, Kind: types.KindTube, SampleCount: 1, Position: &p}
}

func scanned(id, label string) *types.Container {
	return &types.Container{ContainerID: id, Kind: types.KindTube, SampleCount: 1, ScannedLabel: label}
}

func TestBuildIndexNoneSchemeViewIndices(t *testing.T) {
	loc := &types.Location{
		LocationID: "shelf",
		Scheme:     types.SchemeNone,
		Containers: []*types.Container{slot("c5", 5), slot("c1", 1), slot("c3", 3)},
	}

	idx, issues, err := BuildIndex(loc)
	require.NoError(t, err)
	assert.Empty(t, issues)

	for pos, want := range map[int]string{0: "c1", 1: "c3", 2: "c5"} {
		c, ok := idx.At(pos)
		require.True(t, ok, "position %d", pos)
		assert.Equal(t, want, c.ContainerID)
	}
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, Shape{Count: 3}, idx.Shape())
}

func TestBuildIndexNoneSchemeTieBreak(t *testing.T) {
	loc := &types.Location{
		Scheme: types.SchemeNone,
		Containers: []*types.Container{
			slot("b", 2),
			slot("a", 2),
			{ContainerID: "unplaced", Kind: types.KindSlide, SampleCount: 1},
			slot("z", 0),
		},
	}

	idx, _, err := BuildIndex(loc)
	require.NoError(t, err)

	var order []string
	for _, c := range idx.Containers() {
		order = append(order, c.ContainerID)
	}
	assert.Equal(t, []string{"z", "a", "b", "unplaced"}, order)
}

func TestBuildIndexGridSlots(t *testing.T) {
	loc := &types.Location{
		LocationID: "box",
		Rows:       4,
		Cols:       4,
		Scheme:     types.SchemeAlpha,
		Containers: []*types.Container{slot("a", 0), scanned("b", "B2")},
	}

	idx, issues, err := BuildIndex(loc)
	require.NoError(t, err)
	assert.Empty(t, issues)

	pos, ok := idx.PositionOf("b")
	require.True(t, ok)
	assert.Equal(t, 5, pos)
	assert.Equal(t, []int{0, 5}, idx.Positions())

	_, ok = idx.At(1)
	assert.False(t, ok)

	label, err := idx.Label(5)
	require.NoError(t, err)
	assert.Equal(t, "B2", label)
	assert.Equal(t, Shape{Rows: 4, Cols: 4, Count: 2}, idx.Shape())
}

func TestBuildIndexFirstSeenWins(t *testing.T) {
	loc := &types.Location{
		Rows:       2,
		Cols:       2,
		Scheme:     types.SchemeNum,
		Containers: []*types.Container{slot("first", 3), scanned("second", "2-2")},
	}

	idx, issues, err := BuildIndex(loc)
	require.NoError(t, err)

	c, ok := idx.At(3)
	require.True(t, ok)
	assert.Equal(t, "first", c.ContainerID)

	require.Len(t, issues, 1)
	assert.ErrorIs(t, issues[0], types.ErrDataInconsistency)
	assert.Equal(t, "second", issues[0].ContainerID)
	assert.Equal(t, "first", issues[0].HolderID)
	assert.Equal(t, 3, issues[0].Position)
	assert.Contains(t, issues[0].Error(), "held by first")

	_, ok = idx.PositionOf("second")
	assert.False(t, ok, "dropped container is not indexed")
}

func TestBuildIndexUnplaceable(t *testing.T) {
	loc := &types.Location{
		Rows:   2,
		Cols:   2,
		Scheme: types.SchemeAlpha,
		Containers: []*types.Container{
			slot("outside", 4),
			scanned("garbled", "??"),
			{ContainerID: "bare", Kind: types.KindTube, SampleCount: 1},
		},
	}

	idx, issues, err := BuildIndex(loc)
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
	require.Len(t, issues, 3)
	assert.ErrorIs(t, issues[0], types.ErrOutOfBounds)
	assert.ErrorIs(t, issues[1], types.ErrInvalidPositionFormat)
	assert.ErrorIs(t, issues[2], types.ErrInvalidPositionFormat)
	assert.Equal(t, -1, issues[2].Position)
}

func TestBuildIndexProgrammingErrors(t *testing.T) {
	_, _, err := BuildIndex(nil)
	assert.ErrorIs(t, err, types.ErrNilLocation)

	_, _, err = BuildIndex(&types.Location{Scheme: types.SchemeNone, Containers: []*types.Container{nil}})
	assert.ErrorIs(t, err, types.ErrNilContainer)
}

func TestFingerprint(t *testing.T) {
	a := &types.Location{LocationID: "L", Rows: 2, Cols: 2, Scheme: types.SchemeAlpha,
		Containers: []*types.Container{slot("x", 0), slot("y", 1)}}
	b := &types.Location{LocationID: "L", Rows: 2, Cols: 2, Scheme: types.SchemeAlpha,
		Containers: []*types.Container{slot("y", 1), slot("x", 0)}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b), "container order does not matter")
	assert.Len(t, Fingerprint(a), 64)

	*b.Containers[0].Position = 2
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b), "moved container changes the fingerprint")
	assert.Empty(t, Fingerprint(nil))
}
