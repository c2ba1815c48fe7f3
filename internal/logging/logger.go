// Package logging provides the leveled logger shared by the CLI and the
// simulation core.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// EnvVar overrides the level when no flag is given.
const EnvVar = "SOFTBODY_LOG_LEVEL"

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
	case LevelOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParseLevel is case-insensitive and falls back to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none", "quiet":
		return LevelOff
	default:
		return LevelInfo
	}
}

// ResolveLevel prefers the flag value, then the environment.
func ResolveLevel(flagValue string) Level {
	if flagValue != "" {
		return ParseLevel(flagValue)
	}
	return ParseLevel(os.Getenv(EnvVar))
}

type Logger struct {
	level Level
	out   *log.Logger
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level: level,
		out:   log.New(w, "", log.LstdFlags),
	}
}

func NewStderr(level string) *Logger {
	return New(os.Stderr, ResolveLevel(level))
}

// Discard drops everything. It is the default for library code.
func Discard() *Logger {
	return New(io.Discard, LevelOff)
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Enabled(level Level) bool {
	return level >= l.level && l.level != LevelOff
}

func (l *Logger) logf(level Level, format string, v ...any) {
	if !l.Enabled(level) {
		return
	}
	l.out.Printf("[%s] %s", strings.ToUpper(level.String()), fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.logf(LevelInfo, format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.logf(LevelWarn, format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v...) }
