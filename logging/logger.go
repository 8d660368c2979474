// Package logging provides per-component logrus loggers for keyflow.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type componentLogger struct {
	logger *logrus.Logger
	entry  *logrus.Entry
	file   *dailyFileWriter
}

var (
	loggers   = make(map[string]*componentLogger)
	loggersMu sync.Mutex
	current   Config
)

// NewLogger returns the logger for a component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if cl, exists := loggers[component]; exists {
		return cl.entry
	}

	logger := logrus.New()
	cl := &componentLogger{logger: logger, entry: logger.WithField("component", component)}
	apply(cl, component, current)
	loggers[component] = cl
	return cl.entry
}

// Configure applies cfg to every logger created so far and to the ones
// created afterwards.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	current = cfg
	for component, cl := range loggers {
		apply(cl, component, cfg)
	}
}

// Close releases the log files held by all loggers.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, cl := range loggers {
		if cl.file != nil {
			cl.file.Close()
		}
	}
}

func apply(cl *componentLogger, component string, cfg Config) {
	logger := cl.logger

	levelStr := "info"
	if env := os.Getenv("KEYFLOW_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetReportCaller(os.Getenv("KEYFLOW_LOG_CALLER") == "true" || cfg.ReportCaller)

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

	if cl.file != nil {
		cl.file.Close()
		cl.file = nil
	}
	if !cfg.File.Disabled && os.Getenv("KEYFLOW_LOG_FILE") != "off" {
		fixed := ""
		if cfg.File.Enabled && cfg.File.Path != "" {
			fixed = expandPath(cfg.File.Path)
		}
		cl.file = newDailyFileWriter(component, fixed)
		writers = append(writers, cl.file)
	}

	if shouldLogToStderr(cfg.Format.StructuredToStderr, level) {
		writers = append(writers, stderrSink)
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

// shouldLogToStderr decides the stderr sink. In auto mode structured logs are
// hidden from interactive terminals unless debugging.
func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv("KEYFLOW_DEBUG") == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
