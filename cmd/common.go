package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/config"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// busOptions maps the config file onto bus options.
func busOptions(cfg *config.Config) bus.Options {
	opts := bus.DefaultOptions()
	opts.SocketPath = cfg.Socket.Path
	opts.Stream.Reconnect = cfg.Stream.ReconnectEnabled()
	opts.Stream.WaitForSocket = cfg.Stream.WaitForSocketEnabled()
	opts.Stream.InitialBackoff = cfg.Stream.InitialBackoff
	opts.Stream.MaxBackoff = cfg.Stream.MaxBackoff
	opts.CommandTimeout = cfg.Commands.Timeout
	opts.Logger = logging.NewLogger("bus")
	return opts
}

// newBus loads the config and builds a bus connected to the compositor.
func newBus(cmd *cobra.Command) (*bus.Bus, *config.Config, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	b, err := newBusFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return b, cfg, nil
}

func newBusFromConfig(cfg *config.Config) (*bus.Bus, error) {
	return bus.New(busOptions(cfg))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// waitForWorkspaces blocks until the bus knows at least one workspace.
func waitForWorkspaces(ctx context.Context, b *bus.Bus, timeout time.Duration) error {
	return waitFor(ctx, b, timeout, func() bool { return len(b.Workspaces()) > 0 })
}

// waitForSync blocks until both bulk lists niri sends on connect were applied.
func waitForSync(ctx context.Context, b *bus.Bus, timeout time.Duration) error {
	return waitFor(ctx, b, timeout, b.Synced)
}

func waitFor(ctx context.Context, b *bus.Bus, timeout time.Duration, ready func() bool) error {
	sub := b.SubscribeContext(ctx)
	defer sub.Close()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for !ready() {
		select {
		case <-sub.C():
		case <-b.Done():
			if err := b.Err(); err != nil {
				return err
			}
			return errors.New(errors.ErrCodeStreamClosed, "event stream ended before any state arrived")
		case <-deadline.C:
			return errors.New(errors.ErrCodeReadFailed, "no state received from the compositor").
				WithDetail("timeout", timeout.String())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// writeOutput renders v as indented JSON with --json and YAML otherwise.
func writeOutput(cmd *cobra.Command, v interface{}) error {
	return encode(cmd.OutOrStdout(), cli.GetOptions(cmd).JSONOutput, v)
}

func encode(w io.Writer, asJSON bool, v interface{}) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
