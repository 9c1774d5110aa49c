package cli

import (
	"github.com/grovetools/niribar/config"
	"github.com/grovetools/niribar/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the persistent flags shared by every command.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a root command with the standard flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/niribar/config.yml)")

	SetStyledHelp(cmd)

	return cmd
}

// GetOptions extracts common options from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// LoadConfig loads the config selected by --config (or the default lookup)
// and installs its `logging` section. --verbose forces debug logging.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)

	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		cfg, err = config.Load(opts.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	var logCfg logging.Config
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		return nil, err
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logging.Configure(logCfg)

	return cfg, nil
}

// GetLogger returns the CLI logger.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	return logging.NewLogger("cli").WithField("command", cmd.Name())
}

// Execute runs cmd and reports a failure through the ErrorHandler.
func Execute(cmd *cobra.Command) error {
	executed, err := cmd.ExecuteC()
	if err == nil {
		return nil
	}
	if executed == nil {
		executed = cmd
	}
	return NewErrorHandler(GetOptions(executed).Verbose).WithWriter(executed.ErrOrStderr()).Handle(err)
}
