package cmd

import (
	"fmt"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/schema"
	"github.com/spf13/cobra"
)

// effectiveConfig is the config as the running process sees it.
type effectiveConfig struct {
	Source     string      `json:"source" yaml:"source"`
	Socket     interface{} `json:"socket" yaml:"socket"`
	Stream     interface{} `json:"stream" yaml:"stream"`
	Commands   interface{} `json:"commands" yaml:"commands"`
	Workspaces interface{} `json:"workspaces" yaml:"workspaces"`
	Server     interface{} `json:"server" yaml:"server"`
	Logging    interface{} `json:"logging" yaml:"logging"`
}

// NewConfigCmd creates the `config` command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration",
		Long: `Shows the configuration after defaults are applied, and the file it was
read from. This is useful for debugging configuration issues.

Examples:
  niribar config
  niribar config --schema > niribar.schema.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showSchema, _ := cmd.Flags().GetBool("schema"); showSchema {
				fmt.Fprint(cmd.OutOrStdout(), string(schema.Raw()))
				return nil
			}

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			var logCfg logging.Config
			if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
				return err
			}

			source := cfg.Path
			if source == "" {
				source = "(defaults)"
			}
			return writeOutput(cmd, effectiveConfig{
				Source: source,
				Socket: map[string]interface{}{"path": cfg.Socket.Path},
				Stream: map[string]interface{}{
					"reconnect":       cfg.Stream.ReconnectEnabled(),
					"initial_backoff": cfg.Stream.InitialBackoff.String(),
					"max_backoff":     cfg.Stream.MaxBackoff.String(),
					"wait_for_socket": cfg.Stream.WaitForSocketEnabled(),
				},
				Commands: map[string]interface{}{
					"timeout": cfg.Commands.Timeout.String(),
				},
				Workspaces: map[string]interface{}{"wrap": cfg.Workspaces.Wrap},
				Server: map[string]interface{}{
					"socket":   cfg.ServerSocket(),
					"pid_file": cfg.PidFile(),
				},
				Logging: logCfg,
			})
		},
	}
	cmd.Flags().Bool("schema", false, "Print the JSON schema of the config file")
	return cmd
}
