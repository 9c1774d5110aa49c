package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the `watch` command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the workspace bar and focused title on every change",
		Long: `Runs the bus and prints one line per state change: the workspaces, with
the focused one highlighted, followed by the focused window's title.
With --json every line is a full state snapshot instead.

Examples:
  niribar watch
  niribar watch --json | jq -r .title
`,
		Args: cobra.NoArgs,
		RunE: runWatchE,
	}
	return cmd
}

func runWatchE(cmd *cobra.Command, args []string) error {
	b, _, err := newBus(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sub := b.SubscribeContext(ctx)
	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	asJSON := cli.GetOptions(cmd).JSONOutput
	out := cmd.OutOrStdout()
	last := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.Done():
			return b.Err()
		case _, ok := <-sub.C():
			if !ok {
				return b.Err()
			}
			snap := b.Snapshot()
			if asJSON {
				if err := json.NewEncoder(out).Encode(snap); err != nil {
					return err
				}
				continue
			}
			line := renderBar(snap)
			if line != last {
				fmt.Fprintln(out, line)
				last = line
			}
		}
	}
}

// renderBar formats a snapshot as a single status line.
func renderBar(snap bus.Snapshot) string {
	t := cli.DefaultTheme
	var b strings.Builder

	for i, ws := range snap.Workspaces {
		if i > 0 {
			b.WriteString(" ")
		}
		label := ws.DisplayName()
		if ws.Name != nil {
			label = fmt.Sprintf("%d:%s", ws.Idx, *ws.Name)
		}
		if ws.IsFocused {
			b.WriteString(t.Accent.Render("[" + label + "]"))
		} else {
			b.WriteString(t.Muted.Render(" " + label + " "))
		}
	}

	if snap.Title != "" {
		b.WriteString(t.Muted.Render(" | "))
		b.WriteString(snap.Title)
	}
	if name := snap.KeyboardLayouts.CurrentName(); name != "" {
		b.WriteString(t.Muted.Render(" | "))
		b.WriteString(name)
	}
	if snap.OverviewOpen {
		b.WriteString(t.Muted.Render(" | "))
		b.WriteString("overview")
	}
	if snap.Stale {
		b.WriteString(" ")
		b.WriteString(t.Stale.Render("(stale)"))
	}
	return b.String()
}

