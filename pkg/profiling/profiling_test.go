package profiling

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerDisabledIsNoop(t *testing.T) {
	var timer Timer
	s := timer.Start("work")
	s.Stop()

	var buf bytes.Buffer
	timer.Summarize(&buf)
	assert.Empty(t, buf.String())
}

func TestTimerNestsSpans(t *testing.T) {
	var timer Timer
	timer.Enable()

	outer := timer.Start("replay")
	inner := timer.Start("decode")
	inner.Stop()
	outer.Stop()
	timer.Start("snapshot").Stop()

	var buf bytes.Buffer
	timer.Summarize(&buf)
	out := buf.String()

	assert.Contains(t, out, "timing:")
	assert.Contains(t, out, "  - replay")
	assert.Contains(t, out, "    - decode")
	assert.Contains(t, out, "  - snapshot")
}

func TestCobraProfilerWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")

	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--cpu-profile", cpu, "--mem-profile", mem})

	p := NewCobraProfiler()
	p.Attach(cmd)
	require.NoError(t, cmd.Execute())

	for _, path := range []string{cpu, mem} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size(), path)
	}
}

func TestCobraProfilerBadPath(t *testing.T) {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"--cpu-profile", filepath.Join(t.TempDir(), "missing", "cpu.pprof")})

	NewCobraProfiler().Attach(cmd)
	assert.Error(t, cmd.Execute())
}
