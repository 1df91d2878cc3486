// Package logging provides component-scoped logging for poolctl.
//
// Basic usage:
//
//	cfg := logging.Config{Level: "info"}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := logging.Get("scanner")
//	logger.Info("scan complete", "libraries", 42)
//
// Before Init is called, loggers default to the warn level so library
// embedders get a quiet controller without any setup.
package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// toCharmLevel converts our Level to charmbracelet/log level.
func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Components maps component names to their log levels, allowing
	// per-component overrides (e.g. scanner: debug).
	Components map[string]string
}

// Logger wraps charmbracelet/log with component identification.
type Logger struct {
	inner     *log.Logger
	component string
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.inner.Debug(msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.inner.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.inner.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.inner.Error(msg, args...)
}

// With returns a new logger with additional context.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{inner: l.inner.With(args...), component: l.component}
}

// state holds the global logging state.
type state struct {
	mu         sync.Mutex
	level      Level
	components map[string]Level
	loggers    map[string]*Logger
}

var globalState = &state{
	level:      LevelWarn,
	components: make(map[string]Level),
	loggers:    make(map[string]*Logger),
}

// Init configures the logging system. It may be called again to re-apply
// configuration (the config watcher does this on file changes); existing
// component loggers pick up the new levels.
func Init(cfg Config) error {
	level := LevelWarn
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		level = parsed
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %q: %w", comp, err)
		}
		components[comp] = parsed
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	globalState.level = level
	globalState.components = components

	// Re-level existing loggers in place so held references stay valid.
	for name, logger := range globalState.loggers {
		logger.inner.SetLevel(levelForLocked(name).toCharmLevel())
	}
	return nil
}

// Get returns the logger for a component, creating it if needed.
func Get(component string) *Logger {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	inner := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          component,
	})
	inner.SetLevel(levelForLocked(component).toCharmLevel())

	logger := &Logger{inner: inner, component: component}
	globalState.loggers[component] = logger
	return logger
}

// levelForLocked returns the effective level for a component.
// Caller must hold globalState.mu.
func levelForLocked(component string) Level {
	if lvl, ok := globalState.components[component]; ok {
		return lvl
	}
	return globalState.level
}
