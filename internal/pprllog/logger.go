// Package pprllog provides the leveled logger used by the demo CLI and,
// optionally, by library callers who want embed/compare/match progress
// surfaced. Grounded on internal/server/logger.go: the
// LogLevel enum, sync.Once-guarded global instance, and
// Debug/Info/Warn/Error package-level helpers are kept; the audit-log
// and session-ID concerns (meaningful for a running peer-to-peer server,
// not a library) are dropped.
package pprllog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level is a logging severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Logger writes leveled messages to a single underlying writer.
type Logger struct {
	level  Level
	target *log.Logger
	mu     sync.RWMutex
}

var (
	global     *Logger
	globalOnce sync.Once
)

// New creates a Logger at level writing to w, prefixed "[pprl] ".
func New(level Level, w io.Writer) *Logger {
	return &Logger{level: level, target: log.New(w, "[pprl] ", log.LstdFlags)}
}

// Init sets the process-wide logger exactly once; later calls are no-ops.
func Init(level Level, w io.Writer) {
	globalOnce.Do(func() {
		global = New(level, w)
	})
}

// Global returns the process-wide logger, falling back to an Info-level
// stderr logger if Init was never called.
func Global() *Logger {
	if global == nil {
		return New(Info, os.Stderr)
	}
	return global
}

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return Debug
	case "info":
		return Info
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}
	l.target.Printf("[%s] %s", levelString(level), fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(Error, format, args...) }

func levelString(level Level) string {
	switch level {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func Debugf(format string, args ...interface{}) { Global().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Global().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Global().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Global().Errorf(format, args...) }
