package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir)

	for _, name := range []string{dbFile, locationsFile, containersFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackendAttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config types.Config
		want   error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres", DataDir: t.TempDir()}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, NewBackend().Attach(tt.config), tt.want)
		})
	}
}

func TestBackendDetach(t *testing.T) {
	b := attach(t, t.TempDir())
	locations := table(t, b, types.TableLocations)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())

	_, err := b.GetTable(types.TableLocations)
	assert.ErrorIs(t, err, types.ErrCabinetDetached)
	_, err = locations.Fetch(nil)
	assert.ErrorIs(t, err, types.ErrCabinetDetached)
	_, err = b.Snapshot("x")
	assert.ErrorIs(t, err, types.ErrCabinetDetached)
}

func TestBackendGetTable(t *testing.T) {
	b := attach(t, t.TempDir())
	for _, name := range types.StandardTableNames {
		_, err := b.GetTable(name)
		assert.NoError(t, err, name)
	}
	_, err := b.GetTable("samples")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestBackendReloadsFromJSONL(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir)
	locID := addLocation(t, b, grid4x4("rack-1"))
	cID := addContainer(t, b, locID, 6)
	require.NoError(t, b.Detach())

	b2 := attach(t, dir)
	snap, err := b2.Snapshot(locID)
	require.NoError(t, err)
	assert.Equal(t, "rack-1", snap.Name)
	assert.Equal(t, 4, snap.Rows)
	require.Len(t, snap.Containers, 1)
	assert.Equal(t, cID, snap.Containers[0].ContainerID)
	pos, ok := snap.Containers[0].StoredPosition()
	assert.True(t, ok)
	assert.Equal(t, 6, pos)
}
