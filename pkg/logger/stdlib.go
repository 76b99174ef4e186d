package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// SlogAdapter writes through a *slog.Logger, honouring its handler level.
type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlogAdapter(l *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: l}
}

// NewSlog builds a Logger writing slog JSON records to w (stderr if nil).
// An empty or unparsable level falls back to info.
func NewSlog(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return New(NewSlogAdapter(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))))
}

// NewForFormat picks the backend for a log format: "slog" selects NewSlog,
// anything else NewZerolog.
func NewForFormat(w io.Writer, level, format string) *Logger {
	if strings.EqualFold(format, "slog") {
		return NewSlog(w, level)
	}
	return NewZerolog(w, level, format)
}

func (s *SlogAdapter) Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Any(a.Key, a.Value))
	}
	s.logger.LogAttrs(ctx, level.slog(), msg, out...)
}

func (s *SlogAdapter) IsLevelEnabled(ctx context.Context, level LogLevel) bool {
	return s.logger.Enabled(ctx, level.slog())
}

// Printf logs at info.
func (s *SlogAdapter) Printf(format string, v ...any) {
	s.logger.Info(fmt.Sprintf(format, v...))
}

// StandardAdapter writes "[level] msg k=v ..." lines through a *log.Logger.
// It has no level filtering.
type StandardAdapter struct {
	logger *log.Logger
}

func NewStandardAdapter(l *log.Logger) *StandardAdapter {
	return &StandardAdapter{logger: l}
}

func (s *StandardAdapter) Log(_ context.Context, level LogLevel, msg string, attrs ...Attribute) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	s.logger.Print(b.String())
}

func (s *StandardAdapter) IsLevelEnabled(context.Context, LogLevel) bool {
	return true
}

func (s *StandardAdapter) Printf(format string, v ...any) {
	s.logger.Printf(format, v...)
}

// FromSlog converts slog attributes, such as those carried by tagged errors,
// into logger attributes.
func FromSlog(attrs []slog.Attr) []Attribute {
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = Attr(a.Key, a.Value.Any())
	}
	return out
}
