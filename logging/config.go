package logging

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// Config defines the `logging` section of the niribar configuration file.
type Config struct {
	// Level is the minimum log level to output (e.g., "debug", "info", "warn", "error").
	// Can be overridden by the NIRIBAR_LOG_LEVEL environment variable.
	Level string `json:"level,omitempty" yaml:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`

	// ReportCaller, if true, includes the file, line, and function name in the log output.
	// Can be enabled with the NIRIBAR_LOG_CALLER=true environment variable.
	ReportCaller bool `json:"report_caller,omitempty" yaml:"report_caller"`

	// File configures logging to a file.
	File FileSinkConfig `json:"file,omitempty" yaml:"file"`

	// Format configures the appearance of the log output.
	Format FormatConfig `json:"format,omitempty" yaml:"format"`
}

// FileSinkConfig configures the file logging sink.
type FileSinkConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled"`
	// Path is the full path to the log file. Defaults to
	// $XDG_STATE_HOME/niribar/logs/<component>-<date>.log.
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" jsonschema:"enum=text,enum=json"`
}

// FormatConfig controls the log output format.
type FormatConfig struct {
	// Preset can be "default" (rich text), "simple" (minimal text), or "json".
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty" jsonschema:"enum=default,enum=simple,enum=json"`
	// DisableTimestamp disables the timestamp from the "default" and "simple" formats.
	DisableTimestamp bool `json:"disable_timestamp,omitempty" yaml:"disable_timestamp"`
	// DisableComponent disables the component name from the "default" and "simple" formats.
	DisableComponent bool `json:"disable_component,omitempty" yaml:"disable_component"`
	// StructuredToStderr controls when logs are sent to stderr.
	// Can be "auto" (default), "always", or "never".
	StructuredToStderr string `json:"structured_to_stderr,omitempty" yaml:"structured_to_stderr,omitempty" jsonschema:"enum=auto,enum=always,enum=never"`
}
