// Package profiling adds pprof capture and coarse timing spans to the CLI.
package profiling

import (
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/logging"
	"github.com/spf13/cobra"
)

// CobraProfiler owns the --cpu-profile, --mem-profile and --timing flags.
type CobraProfiler struct {
	cpuProfileFile *os.File
	cpuProfilePath string
	memProfilePath string
	timing         bool
}

// NewCobraProfiler creates a profiler with all capture disabled.
func NewCobraProfiler() *CobraProfiler {
	return &CobraProfiler{}
}

// Attach registers the flags on cmd and installs the persistent hooks that
// start and stop capture around every subcommand.
func (p *CobraProfiler) Attach(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&p.cpuProfilePath, "cpu-profile", "", "Write a CPU profile to file")
	cmd.PersistentFlags().StringVar(&p.memProfilePath, "mem-profile", "", "Write a heap profile to file on exit")
	cmd.PersistentFlags().BoolVar(&p.timing, "timing", false, "Print a timing summary to stderr on exit")
	cmd.PersistentPreRunE = p.PreRun
	cmd.PersistentPostRun = p.PostRun
}

// PreRun starts CPU profiling and timing when requested.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) error {
	if p.timing {
		Enable()
	}
	if p.cpuProfilePath == "" {
		return nil
	}

	f, err := os.Create(p.cpuProfilePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "could not create CPU profile").
			WithDetail("path", p.cpuProfilePath)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "could not start CPU profile")
	}
	p.cpuProfileFile = f
	return nil
}

// PostRun flushes profiles and prints the timing summary.
func (p *CobraProfiler) PostRun(cmd *cobra.Command, args []string) {
	p.finish(cmd.ErrOrStderr())
}

func (p *CobraProfiler) finish(out io.Writer) {
	logger := logging.NewLogger("profiling")

	if p.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		p.cpuProfileFile.Close()
		p.cpuProfileFile = nil
		logger.Infof("CPU profile written to %s", p.cpuProfilePath)
	}

	if p.memProfilePath != "" {
		if err := writeHeapProfile(p.memProfilePath); err != nil {
			logger.WithError(err).Error("Could not write heap profile")
		} else {
			logger.Infof("Heap profile written to %s", p.memProfilePath)
		}
	}

	if p.timing {
		Summarize(out)
	}
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
