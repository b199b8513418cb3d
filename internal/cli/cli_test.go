package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func init() {
	color.NoColor = true
}

// cliEnv runs commands against isolated config and data directories.
type cliEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

type result struct {
	Stdout string
	Stderr string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	return &cliEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e *cliEnv) run(args ...string) (result, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.Execute()
	return result{Stdout: stdout.String(), Stderr: stderr.String()}, err
}

func (e *cliEnv) mustRun(args ...string) result {
	e.t.Helper()
	res, err := e.run(args...)
	require.NoError(e.t, err, "rackgrid %v\nstdout: %s\nstderr: %s", args, res.Stdout, res.Stderr)
	return res
}

// parseJSON decodes the stdout of a --json command.
func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

// slots maps container ID to stored position for a location.
func (e *cliEnv) slots(location string) map[string]int {
	e.t.Helper()
	cs := parseJSON[[]types.Container](e.t, e.mustRun("container", "list", "--location", location, "--json").Stdout)
	out := make(map[string]int, len(cs))
	for _, c := range cs {
		require.NotNil(e.t, c.Position, "container %s has no position", c.ContainerID)
		out[c.ContainerID] = *c.Position
	}
	return out
}

func (e *cliEnv) addContainer(location, slot string) string {
	e.t.Helper()
	args := []string{"container", "add", "--location", location, "--json"}
	if slot != "" {
		args = append(args, "--position", slot)
	}
	c := parseJSON[types.Container](e.t, e.mustRun(args...).Stdout)
	return c.ContainerID
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	res := env.mustRun("version")
	assert.Contains(t, res.Stdout, "rackgrid v")
}

func TestInit(t *testing.T) {
	env := newCLIEnv(t)
	res := env.mustRun("init")

	assert.Contains(t, res.Stdout, "rackgrid initialized in "+env.dataDir)
	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.dataDir, "locations.jsonl"))
	assert.FileExists(t, filepath.Join(env.dataDir, "containers.jsonl"))
}

func TestInitRejectsBadDirection(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("RACKGRID_DIRECTION", "diagonal")

	_, err := env.run("init")
	require.ErrorIs(t, err, types.ErrInvalidData)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestLocationCreateListShow(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "2", "--cols", "2")
	env.mustRun("location", "create", "shelf", "--scheme", "none", "--capacity", "5")
	env.addContainer("rack", "A1")

	list := env.mustRun("location", "list").Stdout
	assert.Contains(t, list, "rack")
	assert.Contains(t, list, "2x2")
	assert.Contains(t, list, "- (cap 5)")

	locs := parseJSON[[]types.Location](t, env.mustRun("location", "list", "--json").Stdout)
	require.Len(t, locs, 2)

	show := env.mustRun("location", "show", "rack").Stdout
	assert.Contains(t, show, "A1 .\n.  .\n")

	occupied := parseJSON[[]slotJSON](t, env.mustRun("location", "show", "rack", "--json").Stdout)
	require.Len(t, occupied, 1)
	assert.Equal(t, "A1", occupied[0].Label)
}

func TestLocationCreateInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"rows without cols", []string{"--rows", "4"}, types.ErrInvalidData},
		{"unknown scheme", []string{"--rows", "4", "--cols", "4", "--scheme", "roman"}, types.ErrInvalidData},
		{"unknown direction", []string{"--rows", "4", "--cols", "4", "--direction", "up"}, types.ErrInvalidData},
		{"grid scheme without grid", []string{"--scheme", "alpha"}, types.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			_, err := env.run(append([]string{"location", "create", "bad"}, tt.args...)...)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestLocationDuplicateName(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "2", "--cols", "2")
	_, err := env.run("location", "create", "rack", "--rows", "2", "--cols", "2")
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestLocationDeleteNotEmpty(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "2", "--cols", "2")
	id := env.addContainer("rack", "")

	_, err := env.run("location", "delete", "rack")
	require.ErrorIs(t, err, types.ErrNotEmpty)

	env.mustRun("container", "remove", id)
	env.mustRun("location", "delete", "rack")
	_, err = env.run("location", "show", "rack")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestContainerAddPlacement(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "3", "--cols", "3", "--direction", "top_bottom")

	first := env.addContainer("rack", "")
	second := env.addContainer("rack", "")
	third := env.addContainer("rack", "#4")

	assert.Equal(t, map[string]int{first: 0, second: 3, third: 4}, env.slots("rack"))

	_, err := env.run("container", "add", "--location", "rack", "--position", "B2")
	assert.ErrorIs(t, err, types.ErrOccupied)

	_, err = env.run("container", "add", "--location", "rack", "--position", "Z9")
	assert.ErrorIs(t, err, types.ErrInvalidPositionFormat)

	_, err = env.run("container", "add", "--position", "A1")
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestContainerAddScannedLabel(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "box", "--rows", "2", "--cols", "2", "--scheme", "num")
	env.mustRun("container", "add", "--location", "box", "--label", "2-1")

	list := env.mustRun("container", "list", "--location", "box").Stdout
	assert.Contains(t, list, "2-1")
}

func TestContainerAddFullLocation(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "pair", "--rows", "1", "--cols", "2")
	env.addContainer("pair", "")
	env.addContainer("pair", "")

	_, err := env.run("container", "add", "--location", "pair")
	assert.ErrorIs(t, err, types.ErrOutOfBounds)
}

func TestMovePattern(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "4", "--cols", "4")
	a := env.addContainer("rack", "A1")
	b := env.addContainer("rack", "B2")

	res := env.mustRun("move", "--from", "rack", "--select", "A1,B2", "--at", "A3", "--direction", "pattern")
	assert.Contains(t, res.Stdout, "moved 2 container(s) to rack")
	assert.Equal(t, map[string]int{a: 2, b: 7}, env.slots("rack"))
}

func TestMoveAcrossLocations(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "8", "--cols", "12")
	env.mustRun("location", "create", "box", "--rows", "9", "--cols", "9", "--scheme", "num")
	a := env.addContainer("rack", "A4")
	b := env.addContainer("rack", "A5")

	env.mustRun("move", "--from", "rack", "--to", "box", "--select", "A4,A5", "--at", "1-9", "--direction", "top_bottom")

	assert.Empty(t, env.slots("rack"))
	assert.Equal(t, map[string]int{a: 8, b: 17}, env.slots("box"))
}

func TestMoveDryRun(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "2", "--cols", "2")
	a := env.addContainer("rack", "A1")

	res := env.mustRun("move", "--from", "rack", "--select", "A1", "--at", "B2", "--dry-run")
	assert.Contains(t, res.Stdout, "accepted")
	assert.Contains(t, res.Stdout, "A1 .\n.  +\n")
	assert.Equal(t, map[string]int{a: 0}, env.slots("rack"))

	plan := parseJSON[moveJSON](t, env.mustRun("move", "--from", "rack", "--select", "A1", "--at", "B2", "--dry-run", "--json").Stdout)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "A1", plan.Assignments[0].From)
	assert.Equal(t, "B2", plan.Assignments[0].To)
}

func TestMoveRejected(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("location", "create", "rack", "--rows", "2", "--cols", "3")
	a := env.addContainer("rack", "A1")
	b := env.addContainer("rack", "A2")
	c := env.addContainer("rack", "B3")
	before := map[string]int{a: 0, b: 1, c: 5}

	t.Run("occupied", func(t *testing.T) {
		res, err := env.run("move", "--from", "rack", "--select", "A1,A2", "--at", "B2", "--direction", "left_right")
		require.ErrorIs(t, err, types.ErrOccupied)
		assert.Contains(t, res.Stdout, "OCCUPIED")
		assert.Equal(t, before, env.slots("rack"))
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, err := env.run("move", "--from", "rack", "--select", "A2,B3", "--at", "B2", "--direction", "pattern")
		require.ErrorIs(t, err, types.ErrOutOfBounds)
		assert.Equal(t, before, env.slots("rack"))
	})

	t.Run("dry run reports rejection", func(t *testing.T) {
		_, err := env.run("move", "--from", "rack", "--select", "A1", "--at", "B3", "--dry-run")
		assert.ErrorIs(t, err, types.ErrOccupied)
	})

	t.Run("empty slot selected", func(t *testing.T) {
		_, err := env.run("move", "--from", "rack", "--select", "B1", "--at", "B2")
		assert.ErrorIs(t, err, types.ErrNilContainer)
	})
}

func TestLabel(t *testing.T) {
	env := newCLIEnv(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"label", "encode", "13"}, "B2\n"},
		{[]string{"label", "encode", "0", "--scheme", "num", "--rows", "9", "--cols", "9"}, "1-1\n"},
		{[]string{"label", "decode", "H12"}, "95\n"},
		{[]string{"label", "decode", "2-3", "--scheme", "num", "--rows", "9", "--cols", "9"}, "11\n"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, env.mustRun(tt.args...).Stdout, "%v", tt.args)
	}

	_, err := env.run("label", "decode", "I1")
	assert.ErrorIs(t, err, types.ErrInvalidPositionFormat)
	_, err = env.run("label", "encode", "96")
	assert.ErrorIs(t, err, types.ErrOutOfBounds)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrInvalidData))
	assert.Equal(t, exitSysError, exitCode(sysErr(errors.New("disk full"))))
	assert.Nil(t, sysErr(nil))
}

func TestLogLevel(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run("--log-level", "loud", "version")
	assert.ErrorIs(t, err, types.ErrInvalidData)

	res := env.mustRun("--log-level", "debug", "label", "encode", "0")
	assert.Contains(t, res.Stderr, "config loaded")
}
