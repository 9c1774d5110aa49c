package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// NewStateCmd creates the `state` command.
func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print a snapshot of the compositor state",
		Long: `Connects to the event stream, waits for the initial state and prints it
as YAML, or JSON with --json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")

			b, _, err := newBus(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if err := b.Start(ctx); err != nil {
				return err
			}
			defer b.Stop()

			if err := waitForSync(ctx, b, timeout); err != nil {
				return err
			}
			return writeOutput(cmd, b.Snapshot())
		},
	}
	cmd.Flags().Duration("timeout", 2*time.Second, "How long to wait for the initial state")
	return cmd
}
