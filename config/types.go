package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the niribar configuration file.
type Config struct {
	// Socket selects the compositor socket.
	Socket SocketConfig `yaml:"socket" jsonschema:"description=Compositor socket settings"`
	// Stream controls the event-stream reader.
	Stream StreamConfig `yaml:"stream" jsonschema:"description=Event stream reconnect behaviour"`
	// Commands controls outbound actions.
	Commands CommandsConfig `yaml:"commands" jsonschema:"description=Outbound action settings"`
	// Workspaces controls workspace cycling.
	Workspaces WorkspacesConfig `yaml:"workspaces" jsonschema:"description=Workspace cycling settings"`
	// Server configures `niribar serve`.
	Server ServerConfig `yaml:"server" jsonschema:"description=Local state server settings"`

	// Extensions captures all other top-level keys, e.g. `logging`.
	Extensions map[string]interface{} `yaml:",remain" jsonschema:"-"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `yaml:"-" jsonschema:"-"`
}

// SocketConfig selects the compositor socket.
type SocketConfig struct {
	// Path overrides the NIRI_SOCKET environment variable.
	Path string `yaml:"path,omitempty" jsonschema:"description=Compositor socket path (defaults to $NIRI_SOCKET)"`
}

// StreamConfig controls the event-stream reader.
type StreamConfig struct {
	Reconnect      *bool         `yaml:"reconnect,omitempty" jsonschema:"description=Reconnect after the compositor drops the stream (default: true)"`
	InitialBackoff time.Duration `yaml:"initial_backoff,omitempty" jsonschema:"description=First reconnect delay (default: 250ms)"`
	MaxBackoff     time.Duration `yaml:"max_backoff,omitempty" jsonschema:"description=Upper bound of the reconnect delay (default: 10s)"`
	WaitForSocket  *bool         `yaml:"wait_for_socket,omitempty" jsonschema:"description=Wait for the socket file to reappear before reconnecting (default: true)"`
}

// CommandsConfig controls outbound actions.
type CommandsConfig struct {
	Timeout time.Duration `yaml:"timeout,omitempty" jsonschema:"description=Connect and write timeout for one action (default: 2s)"`
}

// WorkspacesConfig controls workspace cycling.
type WorkspacesConfig struct {
	Wrap bool `yaml:"wrap" jsonschema:"description=Wrap around when cycling past the first or last workspace"`
}

// ServerConfig configures `niribar serve`.
type ServerConfig struct {
	Socket  string `yaml:"socket,omitempty" jsonschema:"description=Unix socket of the local state server"`
	PidFile string `yaml:"pid_file,omitempty" jsonschema:"description=PID file guarding a single serve instance"`
}

// Defaults.
const (
	DefaultInitialBackoff = 250 * time.Millisecond
	DefaultMaxBackoff     = 10 * time.Second
	DefaultCommandTimeout = 2 * time.Second
)

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Stream.Reconnect == nil {
		t := true
		c.Stream.Reconnect = &t
	}
	if c.Stream.WaitForSocket == nil {
		t := true
		c.Stream.WaitForSocket = &t
	}
	if c.Stream.InitialBackoff == 0 {
		c.Stream.InitialBackoff = DefaultInitialBackoff
	}
	if c.Stream.MaxBackoff == 0 {
		c.Stream.MaxBackoff = DefaultMaxBackoff
	}
	if c.Commands.Timeout == 0 {
		c.Commands.Timeout = DefaultCommandTimeout
	}
}

// ReconnectEnabled reports the effective reconnect setting.
func (s StreamConfig) ReconnectEnabled() bool {
	return s.Reconnect == nil || *s.Reconnect
}

// WaitForSocketEnabled reports the effective wait-for-socket setting.
func (s StreamConfig) WaitForSocketEnabled() bool {
	return s.WaitForSocket == nil || *s.WaitForSocket
}

// UnmarshalExtension decodes a custom top-level section of the config file
// into target, using `yaml` struct tags.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := newDecoder(target)
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}
	return nil
}

func newDecoder(target interface{}) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "yaml",
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
}
