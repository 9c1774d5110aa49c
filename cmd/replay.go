package cmd

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/grovetools/niribar/pkg/profiling"
	"github.com/spf13/cobra"
)

const maxReplayLine = 10 * 1024 * 1024

// ReplayResult is printed by `replay`.
type ReplayResult struct {
	Lines   int          `json:"lines" yaml:"lines"`
	Changes int          `json:"changes" yaml:"changes"`
	State   bus.Snapshot `json:"state" yaml:"state"`
}

// NewReplayCmd creates the `replay` command.
func NewReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <file>",
		Short: "Rebuild state from a captured event log",
		Long: `Feeds a file of event-stream lines, one JSON event per line as written by
'niri msg --json event-stream', into a bus without a compositor connection and
prints the resulting state. Use - to read standard input.

Examples:
  niri msg --json event-stream > events.log
  niribar replay events.log --json
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to open event log").
						WithDetail("path", args[0])
				}
				defer f.Close()
				r = f
			}

			b := bus.NewDetached(busOptions(cfg))
			defer b.Stop()

			result, err := replay(b, r)
			if err != nil {
				return err
			}
			cli.GetLogger(cmd).WithField("lines", result.Lines).WithField("changes", result.Changes).Debug("Replayed event log")
			return writeOutput(cmd, result)
		},
	}
}

// replay feeds every non-blank line of r into b.
func replay(b *bus.Bus, r io.Reader) (ReplayResult, error) {
	var result ReplayResult

	feed := profiling.Start("replay.feed")
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.Lines++
		if b.Feed([]byte(line)) {
			result.Changes++
		}
	}
	feed.Stop()
	if err := scanner.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrCodeReadFailed, "failed to read event log")
	}

	snap := profiling.Start("replay.snapshot")
	result.State = b.Snapshot()
	snap.Stop()
	return result, nil
}
