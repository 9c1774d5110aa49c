package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/niribar/config"
	"github.com/grovetools/niribar/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

const (
	EnvLogLevel  = "NIRIBAR_LOG_LEVEL"
	EnvLogCaller = "NIRIBAR_LOG_CALLER"
	EnvDebug     = "NIRIBAR_DEBUG"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	files     = make(map[string]*os.File)
	loggersMu sync.Mutex
	active    *Config
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, component, currentConfigLocked())

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure installs cfg for every logger, including the ones already
// handed out.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	active = &cfg
	for component, entry := range loggers {
		apply(entry.Logger, component, cfg)
	}
}

// currentConfigLocked returns the installed config, loading the `logging`
// section of the default config file on first use.
func currentConfigLocked() Config {
	if active != nil {
		return *active
	}
	var logCfg Config
	cfg, err := config.LoadDefault()
	if err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}
	active = &logCfg
	return logCfg
}

func apply(logger *logrus.Logger, component string, cfg Config) {
	levelStr := "info"
	if os.Getenv(EnvLogLevel) != "" {
		levelStr = os.Getenv(EnvLogLevel)
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetReportCaller(os.Getenv(EnvLogCaller) == "true" || cfg.ReportCaller)

	switch cfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: cfg.Format})
	}

	var writers []io.Writer

	logger.ReplaceHooks(make(logrus.LevelHooks))
	if f := openFileSink(component, cfg.File); f != nil {
		switch cfg.File.Format {
		case "json":
			logger.AddHook(&fileHook{w: f, formatter: &logrus.JSONFormatter{}})
		case "text":
			logger.AddHook(&fileHook{w: f, formatter: &TextFormatter{Config: FormatConfig{}}})
		default:
			writers = append(writers, f)
		}
	}

	if shouldLogToStderr(cfg.Format.StructuredToStderr, level) {
		writers = append(writers, GetGlobalOutput())
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
}

func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	// auto: an interactive terminal only sees logs in debug mode. A bar
	// launched by the compositor has no tty and always logs.
	isDebug := os.Getenv(EnvDebug) == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

// openFileSink opens (or reuses) the log file for a component. Callers hold
// loggersMu.
func openFileSink(component string, cfg FileSinkConfig) io.Writer {
	if !cfg.Enabled {
		return nil
	}

	path := cfg.Path
	if path == "" {
		path = filepath.Join(paths.LogDir(),
			fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
	} else {
		path = expandPath(path)
	}

	if f, ok := files[path]; ok {
		return f
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logrus.Warnf("Failed to create log directory %s: %v", filepath.Dir(path), err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logrus.Warnf("Failed to open log file %s: %v", path, err)
		return nil
	}
	files[path] = f
	return f
}

// expandPath expands tilde in file paths
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// fileHook writes entries to a file sink with a formatter of its own.
type fileHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}
