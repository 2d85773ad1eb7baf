// Package logging provides the process-wide logger for pretty-changelog.
// Log output goes to stderr so that a changelog written to stdout stays clean.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the log level when no flag selects one.
const EnvLogLevel = "PRETTY_CHANGELOG_LOG"

// Logger is the global logger instance used throughout pretty-changelog.
var Logger *log.Logger

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.WarnLevel)
}

// Configure replaces the global logger. Level precedence: explicit level >
// PRETTY_CHANGELOG_LOG > warn.
func Configure(level string, w io.Writer) {
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	if w == nil {
		w = os.Stderr
	}
	Logger = log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: false,
	})
	Logger.SetStyles(styles())
}

// ParseLevel converts a level name to a log level. Unknown names map to warn.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

// With returns a component logger sharing the global logger's output and level.
func With(component string) *log.Logger {
	return Logger.WithPrefix(component)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// Debugf adapts the logger to the printf-style hooks used by the git package.
func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	badge := func(label, bg string) lipgloss.Style {
		return lipgloss.NewStyle().
			SetString(label).
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color(bg)).
			Foreground(lipgloss.Color("15"))
	}
	s.Levels[log.DebugLevel] = badge("DEBUG", "240")
	s.Levels[log.InfoLevel] = badge("INFO", "33")
	s.Levels[log.WarnLevel] = badge("WARN", "214")
	s.Levels[log.ErrorLevel] = badge("ERROR", "196")
	s.Levels[log.FatalLevel] = badge("FATAL", "88")

	s.Keys["commit"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	s.Keys["tag"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	s.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	s.Values["err"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	return s
}
