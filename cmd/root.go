// Package cmd implements the niribar command line.
package cmd

import (
	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/pkg/profiling"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the niribar command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"niribar",
		"Live model of niri compositor state for status bars",
	)
	root.Long = `Keeps a continuously updated model of niri's workspaces, windows, focus,
keyboard layouts and overview state, read from the compositor event stream.

Examples:
  # Print the focused title and workspaces on every change
  niribar watch

  # Dump the current state as JSON
  niribar state --json

  # Move to the next workspace, wrapping at the end
  niribar cycle --wrap

  # Share one event stream between several bar widgets
  niribar serve
`

	profiling.NewCobraProfiler().Attach(root)

	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewStateCmd())
	root.AddCommand(NewFocusWorkspaceCmd())
	root.AddCommand(NewCycleCmd())
	root.AddCommand(NewReplayCmd())
	root.AddCommand(NewServeCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewLogsCmd())
	root.AddCommand(NewPathsCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(cli.NewVersionCommand("niribar"))

	cli.ApplyStyledHelpRecursive(root)
	return root
}
