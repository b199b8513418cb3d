package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func attach(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func table(t *testing.T, b *Backend, name string) types.Table {
	t.Helper()
	tbl, err := b.GetTable(name)
	require.NoError(t, err)
	return tbl
}

func addLocation(t *testing.T, b *Backend, loc *types.Location) string {
	t.Helper()
	id, err := table(t, b, types.TableLocations).Set("", loc)
	require.NoError(t, err)
	return id
}

func addContainer(t *testing.T, b *Backend, locationID string, pos int) string {
	t.Helper()
	c := &types.Container{Kind: types.KindTube, SampleCount: 1, LocationID: locationID}
	if pos >= 0 {
		c.Position = &pos
	}
	id, err := table(t, b, types.TableContainers).Set("", c)
	require.NoError(t, err)
	return id
}

func grid4x4(name string) *types.Location {
	return &types.Location{
		Name:             name,
		Rows:             4,
		Cols:             4,
		Scheme:           types.SchemeAlpha,
		DefaultDirection: types.DirectionLeftRight,
	}
}
