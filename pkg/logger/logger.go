// Package logger provides a small structured logging facade with pluggable
// backends (zerolog, slog, standard log). The engine and the scenario runner
// log through it so the harness can choose its backend at startup.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"

	"github.com/rs/zerolog"
)

// LogLevel represents logging levels (Debug < Info < Warn < Error)
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = map[LogLevel]string{
	DebugLevel: "debug",
	InfoLevel:  "info",
	WarnLevel:  "warn",
	ErrorLevel: "error",
}

// String returns the lower case level name; unknown levels read as info.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Attribute represents a structured logging attribute for key-value pairs
type Attribute struct {
	Key   string
	Value any
}

// Attr creates an Attribute
func Attr(key string, value any) Attribute {
	return Attribute{Key: key, Value: value}
}

// Adapter defines the contract for logging backends (zerolog, slog, standard log, etc.)
type Adapter interface {
	Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) // Structured logging with level
	IsLevelEnabled(ctx context.Context, level LogLevel) bool                 // Performance check - skip work if disabled
	Printf(format string, v ...any)                                          // Simple printf-style logging
}

// Logger wraps an Adapter and provides the leveled API
type Logger struct {
	backend Adapter
	attrs   []Attribute
}

// New creates a Logger with a custom backend (zerolog, slog, etc.)
func New(backend Adapter) *Logger {
	return &Logger{backend: backend}
}

// Default creates a Logger using the standard library log package (simple, no levels)
func Default() *Logger {
	return New(NewStandardAdapter(log.Default()))
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(NewStandardAdapter(log.New(io.Discard, "", 0)))
}

// With returns a child Logger that adds attrs to every entry.
func (l *Logger) With(attrs ...Attribute) *Logger {
	merged := make([]Attribute, 0, len(l.attrs)+len(attrs))
	merged = append(merged, l.attrs...)
	merged = append(merged, attrs...)
	return &Logger{backend: l.backend, attrs: merged}
}

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, DebugLevel, msg, attrs)
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, InfoLevel, msg, attrs)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, WarnLevel, msg, attrs)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, ErrorLevel, msg, attrs)
}

// Enabled reports whether level would be emitted.
func (l *Logger) Enabled(ctx context.Context, level LogLevel) bool {
	return l.backend.IsLevelEnabled(ctx, level)
}

// Printf provides level-agnostic logging
func (l *Logger) Printf(format string, v ...any) {
	l.backend.Printf(format, v...)
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, attrs []Attribute) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.backend.IsLevelEnabled(ctx, level) {
		return
	}
	if len(l.attrs) > 0 {
		attrs = append(append(make([]Attribute, 0, len(l.attrs)+len(attrs)), l.attrs...), attrs...)
	}
	l.backend.Log(ctx, level, msg, attrs...)
}
