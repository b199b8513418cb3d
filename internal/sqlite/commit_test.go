package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func position(t *testing.T, b *Backend, containerID string) (string, int) {
	t.Helper()
	got, err := table(t, b, types.TableContainers).Get(containerID)
	require.NoError(t, err)
	c := got.(*types.Container)
	pos, ok := c.StoredPosition()
	require.True(t, ok)
	return c.LocationID, pos
}

func TestCommitAppliesBatch(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir)
	rack := addLocation(t, b, grid4x4("rack"))
	a := addContainer(t, b, rack, 0)
	c := addContainer(t, b, rack, 5)

	snap, err := b.Snapshot(rack)
	require.NoError(t, err)

	err = b.Commit(types.CommitRequest{
		Moves: []types.Move{
			{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 5},
			{ContainerID: c, FromLocation: rack, FromPosition: 5, ToLocation: rack, ToPosition: 10},
		},
		Fingerprints: map[string]string{rack: grid.Fingerprint(snap)},
	})
	require.NoError(t, err)

	_, pos := position(t, b, a)
	assert.Equal(t, 5, pos)
	_, pos = position(t, b, c)
	assert.Equal(t, 10, pos)

	// Survives a reload from JSONL.
	require.NoError(t, b.Detach())
	b2 := attach(t, dir)
	_, pos = position(t, b2, a)
	assert.Equal(t, 5, pos)
}

func TestCommitAcrossLocations(t *testing.T) {
	b := attach(t, t.TempDir())
	src := addLocation(t, b, grid4x4("src"))
	dst := addLocation(t, b, grid4x4("dst"))
	a := addContainer(t, b, src, 3)

	require.NoError(t, b.Commit(types.CommitRequest{Moves: []types.Move{
		{ContainerID: a, FromLocation: src, FromPosition: 3, ToLocation: dst, ToPosition: 0},
	}}))

	loc, pos := position(t, b, a)
	assert.Equal(t, dst, loc)
	assert.Equal(t, 0, pos)
	snap, err := b.Snapshot(src)
	require.NoError(t, err)
	assert.Empty(t, snap.Containers)
}

func TestCommitClearsScannedLabel(t *testing.T) {
	b := attach(t, t.TempDir())
	rack := addLocation(t, b, grid4x4("rack"))
	id, err := table(t, b, types.TableContainers).Set("", &types.Container{
		Kind: types.KindTube, SampleCount: 1, LocationID: rack, ScannedLabel: "B2",
	})
	require.NoError(t, err)

	require.NoError(t, b.Commit(types.CommitRequest{Moves: []types.Move{
		{ContainerID: id, FromLocation: rack, FromPosition: 5, ToLocation: rack, ToPosition: 6},
	}}))

	got, err := table(t, b, types.TableContainers).Get(id)
	require.NoError(t, err)
	assert.Empty(t, got.(*types.Container).ScannedLabel)
}

func TestCommitRevalidates(t *testing.T) {
	b := attach(t, t.TempDir())
	rack := addLocation(t, b, grid4x4("rack"))
	a := addContainer(t, b, rack, 0)
	x := addContainer(t, b, rack, 7)
	snap, err := b.Snapshot(rack)
	require.NoError(t, err)
	fresh := grid.Fingerprint(snap)

	tests := []struct {
		name  string
		moves []types.Move
		fp    string
		want  error
	}{
		{
			name:  "stale fingerprint",
			moves: []types.Move{{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 1}},
			fp:    "0000",
			want:  types.ErrStaleSnapshot,
		},
		{
			name:  "container moved meanwhile",
			moves: []types.Move{{ContainerID: a, FromLocation: rack, FromPosition: 2, ToLocation: rack, ToPosition: 1}},
			want:  types.ErrStaleSnapshot,
		},
		{
			name:  "occupied target",
			moves: []types.Move{{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 7}},
			fp:    fresh,
			want:  types.ErrOccupied,
		},
		{
			name:  "out of bounds",
			moves: []types.Move{{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 16}},
			want:  types.ErrOutOfBounds,
		},
		{
			name: "duplicate target",
			moves: []types.Move{
				{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 3},
				{ContainerID: x, FromLocation: rack, FromPosition: 7, ToLocation: rack, ToPosition: 3},
			},
			want: types.ErrDuplicateTarget,
		},
		{
			name:  "unknown location",
			moves: []types.Move{{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: "nope", ToPosition: 0}},
			want:  types.ErrNotFound,
		},
		{
			name:  "no target location",
			moves: []types.Move{{ContainerID: a, FromLocation: rack, FromPosition: 0, ToPosition: 1}},
			want:  types.ErrInvalidData,
		},
		{
			name:  "no source location",
			moves: []types.Move{{ContainerID: a, FromPosition: 0, ToLocation: rack, ToPosition: 1}},
			want:  types.ErrInvalidData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := types.CommitRequest{Moves: tt.moves}
			if tt.fp != "" {
				req.Fingerprints = map[string]string{rack: tt.fp}
			}
			assert.ErrorIs(t, b.Commit(req), tt.want)

			// Nothing was applied.
			_, pos := position(t, b, a)
			assert.Equal(t, 0, pos)
			_, pos = position(t, b, x)
			assert.Equal(t, 7, pos)
		})
	}
}

func TestCommitRespectsCapacity(t *testing.T) {
	b := attach(t, t.TempDir())
	loc := grid4x4("capped")
	loc.Capacity = 2
	rack := addLocation(t, b, loc)
	a := addContainer(t, b, rack, 0)

	err := b.Commit(types.CommitRequest{Moves: []types.Move{
		{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 10},
	}})
	assert.ErrorIs(t, err, types.ErrOutOfBounds)

	require.NoError(t, b.Commit(types.CommitRequest{Moves: []types.Move{
		{ContainerID: a, FromLocation: rack, FromPosition: 0, ToLocation: rack, ToPosition: 1},
	}}))
	_, pos := position(t, b, a)
	assert.Equal(t, 1, pos)
}

// viewOrder returns the container IDs of an unstructured location in view
// order.
func viewOrder(t *testing.T, b *Backend, locationID string) []string {
	t.Helper()
	snap, err := b.Snapshot(locationID)
	require.NoError(t, err)
	idx, _, err := grid.BuildIndex(snap)
	require.NoError(t, err)
	var ids []string
	for _, c := range idx.Containers() {
		ids = append(ids, c.ContainerID)
	}
	return ids
}

func TestCommitRenumbersUnstructured(t *testing.T) {
	b := attach(t, t.TempDir())
	shelf := addLocation(t, b, &types.Location{Name: "shelf", Scheme: types.SchemeNone})
	rack := addLocation(t, b, grid4x4("rack"))
	a := addContainer(t, b, shelf, 1)
	x := addContainer(t, b, shelf, 3)
	y := addContainer(t, b, shelf, 5)
	n := addContainer(t, b, rack, 0)

	t.Run("reorder within the shelf", func(t *testing.T) {
		// View is a, x, y; x and y swap.
		require.NoError(t, b.Commit(types.CommitRequest{Moves: []types.Move{
			{ContainerID: x, FromLocation: shelf, FromPosition: 1, ToLocation: shelf, ToPosition: 2},
			{ContainerID: y, FromLocation: shelf, FromPosition: 2, ToLocation: shelf, ToPosition: 1},
		}}))
		assert.Equal(t, []string{a, y, x}, viewOrder(t, b, shelf))
		for i, id := range []string{a, y, x} {
			_, pos := position(t, b, id)
			assert.Equal(t, i, pos)
		}
	})

	t.Run("append from a rack", func(t *testing.T) {
		require.NoError(t, b.Commit(types.CommitRequest{Moves: []types.Move{
			{ContainerID: n, FromLocation: rack, FromPosition: 0, ToLocation: shelf, ToPosition: 3},
		}}))
		assert.Equal(t, []string{a, y, x, n}, viewOrder(t, b, shelf))
		_, pos := position(t, b, n)
		assert.Equal(t, 3, pos)
	})

	t.Run("swap across locations", func(t *testing.T) {
		// View is a, y, x, n; x leaves for the rack while r joins at its index.
		r := addContainer(t, b, rack, 2)
		require.NoError(t, b.Commit(types.CommitRequest{Moves: []types.Move{
			{ContainerID: x, FromLocation: shelf, FromPosition: 2, ToLocation: rack, ToPosition: 3},
			{ContainerID: r, FromLocation: rack, FromPosition: 2, ToLocation: shelf, ToPosition: 2},
		}}))
		assert.Equal(t, []string{a, y, r, n}, viewOrder(t, b, shelf))
		loc, pos := position(t, b, x)
		assert.Equal(t, rack, loc)
		assert.Equal(t, 3, pos)
	})

	t.Run("gap past the view", func(t *testing.T) {
		m := addContainer(t, b, rack, 1)
		err := b.Commit(types.CommitRequest{Moves: []types.Move{
			{ContainerID: m, FromLocation: rack, FromPosition: 1, ToLocation: shelf, ToPosition: 9},
		}})
		assert.ErrorIs(t, err, types.ErrOutOfBounds)
		loc, _ := position(t, b, m)
		assert.Equal(t, rack, loc)
	})
}

func TestCommitEmptyBatch(t *testing.T) {
	b := attach(t, t.TempDir())
	assert.NoError(t, b.Commit(types.CommitRequest{}))
}
