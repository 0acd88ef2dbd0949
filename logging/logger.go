package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
	current   Config
)

// Configure sets the logging configuration and re-applies it to every
// logger created so far. It is safe to call again on config reload.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	current = cfg
	for _, entry := range loggers {
		apply(entry.Logger, cfg)
	}
}

// Current returns the configuration last passed to Configure.
func Current() Config {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	return current
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// Loggers are cached per component.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, current)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

func apply(logger *logrus.Logger, cfg Config) {
	// Configure Level
	levelStr := "info"
	if env := os.Getenv("PLY_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetReportCaller(os.Getenv("PLY_LOG_CALLER") == "true" || cfg.ReportCaller)

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

	if cfg.File.Enabled && cfg.File.Path != "" {
		path := expandPath(cfg.File.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			logger.Warnf("Failed to create log directory for %s: %v", path, err)
		} else if file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			logger.Warnf("Failed to open log file %s: %v", path, err)
		} else {
			writers = append(writers, file)
		}
	}

	if shouldLogToStderr(cfg.Format.Stderr, logger.GetLevel(), len(writers) > 0) {
		writers = append(writers, os.Stderr)
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

// shouldLogToStderr resolves the stderr mode. In "auto" mode a relay with a
// file sink stays quiet on an interactive terminal unless debugging.
func shouldLogToStderr(mode string, level logrus.Level, hasFile bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		if !hasFile {
			return true
		}
		isDebug := os.Getenv("PLY_DEBUG") == "1" || level >= logrus.DebugLevel
		isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		return isDebug || !isInteractive
	}
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
