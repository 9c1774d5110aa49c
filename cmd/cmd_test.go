package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/niribar/pkg/bus"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/grovetools/niribar/pkg/paths"
	"github.com/grovetools/niribar/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every niribar path at a temporary directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(paths.EnvHome, home)
	t.Setenv("NIRIBAR_CONFIG", "")
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const eventLog = testutil.FixtureWorkspaces + "\n" +
	testutil.FixtureWindows + "\n" +
	"\n" +
	`{"ConfigLoaded":{"failed":false}}` + "\n" +
	`not json` + "\n" +
	`{"KeyboardLayoutsChanged":{"keyboard_layouts":{"names":["us","de"],"current_idx":0}}}` + "\n" +
	`{"WindowFocusChanged":{"id":12}}` + "\n"

func TestReplayFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "events.log")
	require.NoError(t, os.WriteFile(path, []byte(eventLog), 0644))

	out, err := run(t, "", "replay", path, "--json")
	require.NoError(t, err)

	var result ReplayResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 6, result.Lines)
	assert.Equal(t, 4, result.Changes)
	assert.Equal(t, "browser", result.State.Title)
	assert.Equal(t, "us", result.State.KeyboardLayouts.CurrentName())
	require.NotNil(t, result.State.FocusedWindowID)
	assert.Equal(t, int64(12), *result.State.FocusedWindowID)
}

func TestReplayStdinYAML(t *testing.T) {
	isolate(t)

	out, err := run(t, eventLog, "replay", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "lines: 6")
	assert.Contains(t, out, "title: browser")
}

func TestReplayMissingFile(t *testing.T) {
	home := isolate(t)
	_, err := run(t, "", "replay", filepath.Join(home, "absent.log"))
	assert.Error(t, err)
}

func TestFocusWorkspaceSendsAction(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeCompositor(t)
	t.Setenv("NIRI_SOCKET", fake.Path())

	_, err := run(t, "", "focus-workspace", "4")
	require.NoError(t, err)
	assert.Equal(t, `{"Action":{"FocusWorkspace":{"reference":{"Index":4}}}}`, fake.NextCommand(testTimeout))

	_, err = run(t, "", "focus-workspace", "four")
	assert.Error(t, err)
}

func TestStateCommand(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeCompositor(t)
	t.Setenv("NIRI_SOCKET", fake.Path())

	go func() {
		fake.WaitStream(testTimeout)
		fake.Emit(testutil.FixtureWorkspaces)
		time.Sleep(100 * time.Millisecond)
		fake.Emit(testutil.FixtureWindows)
	}()

	out, err := run(t, "", "state", "--json")
	require.NoError(t, err)

	var snap bus.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Workspaces, 2)
	assert.Len(t, snap.Windows, 2)
	assert.Equal(t, "editor", snap.Title)
}

func TestCycleCommandDirect(t *testing.T) {
	isolate(t)
	fake := testutil.NewFakeCompositor(t)
	t.Setenv("NIRI_SOCKET", fake.Path())

	go func() {
		fake.WaitStream(testTimeout)
		fake.Emit(testutil.FixtureWorkspaces, testutil.FixtureWindows)
	}()

	out, err := run(t, "", "cycle", "--backward", "--wrap")
	require.NoError(t, err)
	assert.Contains(t, out, "Focused workspace 2")
	assert.Equal(t, `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`, fake.NextCommand(testTimeout))
}

func TestStatusNotRunning(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_RUNNING")
}

func TestPathsCommand(t *testing.T) {
	home := isolate(t)
	t.Setenv("NIRI_SOCKET", "/run/user/1000/niri.sock")

	out, err := run(t, "", "paths", "--json")
	require.NoError(t, err)

	var p PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, filepath.Join(home, "config"), p.ConfigDir)
	assert.Equal(t, filepath.Join(home, "state", "logs"), p.LogDir)
	assert.Equal(t, "/run/user/1000/niri.sock", p.NiriSocket)
	assert.Empty(t, p.ConfigFile)
}

func TestConfigCommand(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "custom.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("workspaces:\n  wrap: true\nlogging:\n  level: warn\n"), 0644))

	out, err := run(t, "", "config", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "source: "+cfgPath)
	assert.Contains(t, out, "wrap: true")
	assert.Contains(t, out, "initial_backoff: 250ms")
	assert.Contains(t, out, "level: warn")

	out, err = run(t, "", "config", "--schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "niribar "))
}

func TestRenderBar(t *testing.T) {
	snap := bus.Snapshot{
		Workspaces: []niri.Workspace{
			{ID: 1, Idx: 1, Name: niri.String("main"), IsFocused: true},
			{ID: 2, Idx: 2},
		},
		Title:           "editor",
		KeyboardLayouts: niri.KeyboardLayouts{Names: []string{"us"}, CurrentIdx: 0},
		Stale:           true,
	}

	line := renderBar(snap)
	assert.Contains(t, line, "[1:main]")
	assert.Contains(t, line, " 2 ")
	assert.Contains(t, line, "| editor")
	assert.Contains(t, line, "| us")
	assert.Contains(t, line, "(stale)")
	assert.NotContains(t, line, "overview")
}
