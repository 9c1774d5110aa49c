package cmd

import (
	"os"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/pkg/niri/ipc"
	"github.com/grovetools/niribar/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the files and directories niribar uses.
type PathsOutput struct {
	ConfigDir    string `json:"config_dir" yaml:"config_dir"`
	ConfigFile   string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	StateDir     string `json:"state_dir" yaml:"state_dir"`
	LogDir       string `json:"log_dir" yaml:"log_dir"`
	RuntimeDir   string `json:"runtime_dir" yaml:"runtime_dir"`
	ServerSocket string `json:"server_socket" yaml:"server_socket"`
	PidFile      string `json:"pid_file" yaml:"pid_file"`
	NiriSocket   string `json:"niri_socket,omitempty" yaml:"niri_socket,omitempty"`
}

// NewPathsCmd creates the `paths` command.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by niribar",
		Long: `Print the paths used by niribar.

Locations follow the XDG base directories; NIRIBAR_HOME moves all of them
under a single directory:
- config_dir: config.yml / config.toml
- state_dir: logs and the serve pid file
- runtime_dir: the serve socket`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			niriSocket := cfg.Socket.Path
			if niriSocket == "" {
				niriSocket = os.Getenv(ipc.EnvSocket)
			}

			return writeOutput(cmd, PathsOutput{
				ConfigDir:    paths.ConfigDir(),
				ConfigFile:   cfg.Path,
				StateDir:     paths.StateDir(),
				LogDir:       paths.LogDir(),
				RuntimeDir:   paths.RuntimeDir(),
				ServerSocket: cfg.ServerSocket(),
				PidFile:      cfg.PidFile(),
				NiriSocket:   niriSocket,
			})
		},
	}
}
