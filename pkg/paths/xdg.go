// Package paths resolves where niribar keeps its files.
//
// Resolution order:
// 1. NIRIBAR_HOME (portable root) → $NIRIBAR_HOME/{config,state,run}
// 2. XDG env vars → $XDG_*_HOME/niribar
// 3. Defaults → ~/.config/niribar, ~/.local/state/niribar
package paths

import (
	"os"
	"path/filepath"
)

const (
	appName = "niribar"
	// EnvHome overrides every other location.
	EnvHome = "NIRIBAR_HOME"
)

func baseDir(sub, xdgVar string, fallback ...string) string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, sub)
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(append([]string{homeDir}, append(fallback, appName)...)...)
	}
	return ""
}

// ConfigDir returns the directory holding config.yml.
func ConfigDir() string {
	return baseDir("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the directory for logs and the serve pid file.
func StateDir() string {
	return baseDir("state", "XDG_STATE_HOME", ".local", "state")
}

// LogDir returns the default directory of the log file sink.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// RuntimeDir returns the directory for the serve socket. Uses
// XDG_RUNTIME_DIR when available and falls back to StateDir.
func RuntimeDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// ConfigFileCandidates lists the config file names looked up in ConfigDir,
// in priority order.
func ConfigFileCandidates() []string {
	dir := ConfigDir()
	if dir == "" {
		return nil
	}
	return []string{
		filepath.Join(dir, "config.yml"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.toml"),
	}
}

// ServerSocketPath returns the default socket of `niribar serve`.
func ServerSocketPath() string {
	return filepath.Join(RuntimeDir(), "niribar.sock")
}

// PidFilePath returns the default pid file of `niribar serve`.
func PidFilePath() string {
	return filepath.Join(StateDir(), "niribar.pid")
}

// EnsureDirs creates the state and runtime directories.
func EnsureDirs() error {
	for _, dir := range []string{StateDir(), RuntimeDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
