package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/pkg/client"
	"github.com/spf13/cobra"
)

// NewFocusWorkspaceCmd creates the `focus-workspace` command.
func NewFocusWorkspaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus-workspace <index>",
		Short: "Focus the workspace with the given index",
		Long: `Sends a FocusWorkspace action for the workspace at the given 1-based index
on the focused output.

Examples:
  niribar focus-workspace 3
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || idx < 0 {
				return errors.InvalidInput("index must be a non-negative integer").WithDetail("index", args[0])
			}

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			remote := client.NewRemoteClient(cfg.ServerSocket())
			defer remote.Close()
			if remote.IsRunning() {
				if err := remote.FocusWorkspace(cmd.Context(), idx); err != nil {
					return err
				}
			} else {
				b, err := newBusFromConfig(cfg)
				if err != nil {
					return err
				}
				defer b.Stop()
				if err := <-b.Commands().FocusWorkspaceIndex(cmd.Context(), idx); err != nil {
					return err
				}
			}
			cli.GetLogger(cmd).WithField("index", idx).Debug("Focused workspace")
			return nil
		},
	}
}

// NewCycleCmd creates the `cycle` command.
func NewCycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Focus the next or previous workspace",
		Long: `Moves focus to the workspace after the focused one, or before it with
--backward. At either end nothing happens unless --wrap is given or
workspaces.wrap is set in the config file.

A running 'niribar serve' is used when available, so no new event stream
has to be opened.

Examples:
  niribar cycle
  niribar cycle --backward --wrap
`,
		Args: cobra.NoArgs,
		RunE: runCycleE,
	}
	cmd.Flags().BoolP("backward", "b", false, "Cycle to the previous workspace")
	cmd.Flags().BoolP("wrap", "w", false, "Wrap around at the first and last workspace")
	cmd.Flags().Duration("timeout", 2*time.Second, "How long to wait for the initial state")
	return cmd
}

func runCycleE(cmd *cobra.Command, args []string) error {
	backward, _ := cmd.Flags().GetBool("backward")
	wrap, _ := cmd.Flags().GetBool("wrap")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("wrap") {
		wrap = cfg.Workspaces.Wrap
	}
	pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
	logger := cli.GetLogger(cmd)

	remote := client.NewRemoteClient(cfg.ServerSocket())
	defer remote.Close()
	if remote.IsRunning() {
		logger.WithField("socket", remote.SocketPath()).Debug("Cycling through running server")
		resp, err := remote.Cycle(cmd.Context(), !backward, wrap)
		if err != nil {
			return err
		}
		if resp.Moved {
			pretty.Success(fmt.Sprintf("Focused workspace %s", resp.Workspace.DisplayName()))
		}
		return nil
	}

	b, err := newBusFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	if err := waitForWorkspaces(ctx, b, timeout); err != nil {
		return err
	}

	target, result, ok := b.CycleWorkspace(ctx, !backward, wrap)
	if !ok {
		logger.Debug("No workspace in that direction")
		return nil
	}
	if err := <-result; err != nil {
		return err
	}
	pretty.Success(fmt.Sprintf("Focused workspace %s", target.DisplayName()))
	return nil
}
