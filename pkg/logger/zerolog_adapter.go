package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologAdapter is the production backend.
type ZerologAdapter struct {
	logger zerolog.Logger
}

func NewZerologAdapter(l zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: l}
}

// NewZerolog builds a zerolog-backed Logger writing to w (stderr if nil).
//
// format "console" selects zerolog's human readable writer; anything else
// writes JSON lines. An empty or unparsable level falls back to info.
func NewZerolog(w io.Writer, level, format string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return New(NewZerologAdapter(zerolog.New(w).Level(lvl).With().Timestamp().Logger()))
}

func (z *ZerologAdapter) Log(ctx context.Context, level LogLevel, msg string, attrs ...Attribute) {
	evt := z.logger.WithLevel(level.zerolog()).Ctx(ctx)
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case error:
			evt = evt.AnErr(a.Key, v)
		case string:
			evt = evt.Str(a.Key, v)
		default:
			evt = evt.Interface(a.Key, v)
		}
	}
	evt.Msg(msg)
}

func (z *ZerologAdapter) IsLevelEnabled(_ context.Context, level LogLevel) bool {
	return z.logger.GetLevel() <= level.zerolog()
}

func (z *ZerologAdapter) Printf(format string, v ...any) {
	z.logger.Printf(format, v...)
}
