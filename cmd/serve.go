package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/internal/pidfile"
	"github.com/grovetools/niribar/internal/server"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/pkg/client"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the `serve` command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Share one event stream with other processes over a Unix socket",
		Long: `Runs the bus in the foreground and serves its state over HTTP on a local
Unix socket (server.socket, default $XDG_RUNTIME_DIR/niribar/niribar.sock).
Bar widgets can read /api/state or subscribe to the /api/stream websocket
instead of each opening their own compositor connection.`,
		Args: cobra.NoArgs,
		RunE: runServeE,
	}
}

func runServeE(cmd *cobra.Command, args []string) error {
	b, cfg, err := newBus(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewLogger("serve")
	pidPath := cfg.PidFile()
	sockPath := cfg.ServerSocket()

	if err := pidfile.Acquire(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(pidPath); err != nil {
			logger.Errorf("Failed to release pidfile: %v", err)
		}
	}()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	listener, err := server.Listen(sockPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to open server socket").WithDetail("socket", sockPath)
	}
	srv := server.New(b, logger)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(listener) }()

	logger.WithField("pid", os.Getpid()).WithField("socket", sockPath).Info("Serving compositor state")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received stop signal")
	case <-b.Done():
		runErr = b.Err()
	case runErr = <-served:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	return runErr
}

// NewStatusCmd creates the `status` command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running 'niribar serve'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			remote := client.NewRemoteClient(cfg.ServerSocket())
			defer remote.Close()

			status, err := remote.Status(cmd.Context())
			if err != nil {
				if running, pid, _ := pidfile.IsRunning(cfg.PidFile()); running {
					return errors.Wrap(err, errors.ErrCodeNotRunning, "serve is running but not answering").
						WithDetail("pid", pid)
				}
				return errors.New(errors.ErrCodeNotRunning, "niribar serve is not running").
					WithDetail("socket", cfg.ServerSocket())
			}

			if cli.GetOptions(cmd).JSONOutput {
				return writeOutput(cmd, status)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if status.Bus.Stale {
				pretty.Warn("Running, compositor stream disconnected")
			} else {
				pretty.Success("Running")
			}
			pretty.Field("PID", status.PID)
			pretty.Field("Socket", cfg.ServerSocket())
			pretty.Field("Compositor", status.Bus.Socket)
			pretty.Field("Stream", status.Bus.State)
			pretty.Field("Connects", status.Bus.Connects)
			pretty.Field("Clients", status.Clients)
			pretty.Field("Uptime", time.Since(status.StartedAt).Round(time.Second))
			if status.Bus.LastError != "" {
				pretty.Field("Last error", status.Bus.LastError)
			}
			if !status.Bus.LastEventAt.IsZero() {
				pretty.Field("Last event", fmt.Sprintf("%s ago", time.Since(status.Bus.LastEventAt).Round(time.Second)))
			}
			return nil
		},
	}
}
