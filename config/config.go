// Package config loads the niribar configuration file.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/pkg/paths"
	"github.com/grovetools/niribar/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfig names an explicit config file, overriding the XDG lookup.
const EnvConfig = "NIRIBAR_CONFIG"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// The embedded schema is compiled once per process; `cycle` and
// `focus-workspace` load the config on every key press.
var schemaValidator = sync.OnceValues(schema.NewValidator)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads and parses a configuration file. The format is picked from
// the extension: .toml is TOML, anything else YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}

	cfg, err := LoadFromBytes(data, format)
	if err != nil {
		if be, ok := err.(*errors.BarError); ok {
			return nil, be.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// LoadDefault loads $NIRIBAR_CONFIG if set, otherwise the first config file
// found in the config directory. Without any file it returns Default().
func LoadDefault() (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return Load(path)
	}
	path, err := FindConfigFile()
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// FindConfigFile returns the first existing config file in the config
// directory (config.yml, config.yaml, config.toml).
func FindConfigFile() (string, error) {
	for _, path := range paths.ConfigFileCandidates() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.ConfigNotFound(paths.ConfigDir()).WithDetail("searchPath", paths.ConfigDir())
}

// Format is a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// LoadFromBytes parses, validates and decodes configuration data.
func LoadFromBytes(data []byte, format Format) (*Config, error) {
	expanded := expandEnvVars(string(data))

	raw := map[string]interface{}{}
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
	}

	validator, err := schemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to compile config schema")
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}

	var cfg Config
	decoder, err := newDecoder(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Stream.InitialBackoff < 0 || c.Stream.MaxBackoff < 0 || c.Commands.Timeout < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "durations must not be negative")
	}
	if c.Stream.InitialBackoff > c.Stream.MaxBackoff {
		return errors.New(errors.ErrCodeConfigValidation, "stream.initial_backoff must not exceed stream.max_backoff").
			WithDetail("initial_backoff", c.Stream.InitialBackoff.String()).
			WithDetail("max_backoff", c.Stream.MaxBackoff.String())
	}
	return nil
}

// ServerSocket returns the configured serve socket or the default one.
func (c *Config) ServerSocket() string {
	if c.Server.Socket != "" {
		return expandPath(c.Server.Socket)
	}
	return paths.ServerSocketPath()
}

// PidFile returns the configured serve pid file or the default one.
func (c *Config) PidFile() string {
	if c.Server.PidFile != "" {
		return expandPath(c.Server.PidFile)
	}
	return paths.PidFilePath()
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
