// Package logging provides a small leveled logger with module tagging.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents log level
type Level int

const (
	// LevelDebug is for debug messages
	LevelDebug Level = iota
	// LevelInfo is for informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the interface for logging
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	WithModule(module string) Logger
}

// SimpleLogger is a basic logger implementation writing to a single sink.
type SimpleLogger struct {
	module    string
	level     Level
	logger    *log.Logger
	useColors bool
}

// NewSimpleLogger creates a new SimpleLogger writing to stderr.
func NewSimpleLogger(module string, level Level, useColors bool) *SimpleLogger {
	return NewSimpleLoggerWithOutput(module, level, useColors, os.Stderr)
}

// NewSimpleLoggerWithOutput creates a new SimpleLogger with a custom output.
// Colors are only applied when the output is a terminal.
func NewSimpleLoggerWithOutput(module string, level Level, useColors bool, out io.Writer) *SimpleLogger {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		info, _ := f.Stat()
		isTTY = info != nil && (info.Mode()&os.ModeCharDevice) != 0
	}
	return &SimpleLogger{
		module:    module,
		level:     level,
		logger:    log.New(out, "", log.LstdFlags),
		useColors: useColors && isTTY,
	}
}

// formatMessage formats a log message with module, level and key-value pairs.
func (l *SimpleLogger) formatMessage(level Level, msg string, args ...interface{}) string {
	message := msg
	if len(args) > 0 {
		var pairs []string
		for i := 0; i+1 < len(args); i += 2 {
			pairs = append(pairs, fmt.Sprintf("%v=%v", args[i], args[i+1]))
		}
		if len(pairs) > 0 {
			message = fmt.Sprintf("%s %s", msg, strings.Join(pairs, " "))
		}
	}

	modulePart := fmt.Sprintf("[%s]", l.module)
	levelPart := level.String()
	if l.useColors {
		modulePart = colorCyan + modulePart + colorReset
		levelPart = l.colorizeLevel(level, levelPart)
	}

	return fmt.Sprintf("%s %s: %s", modulePart, levelPart, message)
}

// colorizeLevel applies color to log level
func (l *SimpleLogger) colorizeLevel(level Level, text string) string {
	switch level {
	case LevelDebug:
		return colorGray + text + colorReset
	case LevelInfo:
		return colorGreen + text + colorReset
	case LevelWarn:
		return colorYellow + text + colorReset
	case LevelError:
		return colorRed + text + colorReset
	default:
		return text
	}
}

func (l *SimpleLogger) log(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.logger.Println(l.formatMessage(level, msg, args...))
}

// Debug logs a debug message
func (l *SimpleLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an informational message
func (l *SimpleLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *SimpleLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// WithModule creates a new logger with a different module name
func (l *SimpleLogger) WithModule(module string) Logger {
	return &SimpleLogger{
		module:    module,
		level:     l.level,
		logger:    l.logger,
		useColors: l.useColors,
	}
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() Logger {
	return &SimpleLogger{module: "nop", level: LevelError + 1, logger: log.New(io.Discard, "", 0)}
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)
