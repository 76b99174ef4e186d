package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return entry
}

func TestZerologAdapter_Log(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     LogLevel
		msg       string
		attrs     []Attribute
		wantLevel string
		wantAttrs map[string]any
	}{
		{
			name:      "debug without attributes",
			level:     DebugLevel,
			msg:       "cache cleared",
			wantLevel: "debug",
		},
		{
			name:  "info with mixed attributes",
			level: InfoLevel,
			msg:   "vector database ready",
			attrs: []Attribute{
				Attr("index_size", 500),
				Attr("failure_mode", "NONE"),
				Attr("failure_rate", 0.25),
				Attr("latency_scaling", true),
			},
			wantLevel: "info",
			wantAttrs: map[string]any{
				"index_size":      float64(500),
				"failure_mode":    "NONE",
				"failure_rate":    0.25,
				"latency_scaling": true,
			},
		},
		{
			name:      "warn",
			level:     WarnLevel,
			msg:       "admission timeout",
			attrs:     []Attribute{Attr("capacity", 4)},
			wantLevel: "warn",
			wantAttrs: map[string]any{"capacity": float64(4)},
		},
		{
			name:      "error values are rendered as strings",
			level:     ErrorLevel,
			msg:       "search failed",
			attrs:     []Attribute{Attr("error", errors.New("similarity search failed"))},
			wantLevel: "error",
			wantAttrs: map[string]any{"error": "similarity search failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			adapter := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
			adapter.Log(context.Background(), tt.level, tt.msg, tt.attrs...)

			entry := decodeLine(t, buf.Bytes())
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["message"] != tt.msg {
				t.Errorf("message = %v, want %s", entry["message"], tt.msg)
			}
			for k, want := range tt.wantAttrs {
				if entry[k] != want {
					t.Errorf("%s = %v (%T), want %v", k, entry[k], entry[k], want)
				}
			}
		})
	}
}

func TestZerologAdapter_IsLevelEnabled(t *testing.T) {
	t.Parallel()

	adapter := NewZerologAdapter(zerolog.New(nil).Level(zerolog.WarnLevel))
	ctx := context.Background()

	tests := []struct {
		level LogLevel
		want  bool
	}{
		{DebugLevel, false},
		{InfoLevel, false},
		{WarnLevel, true},
		{ErrorLevel, true},
	}
	for _, tt := range tests {
		if got := adapter.IsLevelEnabled(ctx, tt.level); got != tt.want {
			t.Errorf("IsLevelEnabled(%s) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewZerolog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "debug", level: "debug", wantDebug: true, wantInfo: true},
		{name: "upper case", level: "WARN", wantDebug: false, wantInfo: false},
		{name: "empty falls back to info", level: "", wantDebug: false, wantInfo: true},
		{name: "unknown falls back to info", level: "verbose", wantDebug: false, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := NewZerolog(&buf, tt.level, "json")
			ctx := context.Background()

			log.Debug(ctx, "debug entry")
			log.Info(ctx, "info entry")

			out := buf.String()
			if got := strings.Contains(out, "debug entry"); got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if got := strings.Contains(out, "info entry"); got != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v\n%s", got, tt.wantInfo, out)
			}
		})
	}
}

func TestNewZerologJSONHasTimestamp(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewZerolog(&buf, "info", "json").Info(context.Background(), "run finished", Attr("profile", "chaos"))

	entry := decodeLine(t, buf.Bytes())
	if _, ok := entry["time"]; !ok {
		t.Errorf("expected a time field, got %v", entry)
	}
	if entry["profile"] != "chaos" {
		t.Errorf("profile = %v, want chaos", entry["profile"])
	}
}

func TestNewZerologConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewZerolog(&buf, "info", "console").Info(context.Background(), "run finished", Attr("profile", "stress"))

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console format should not emit JSON: %s", out)
	}
	if !strings.Contains(out, "run finished") || !strings.Contains(out, "profile=") {
		t.Errorf("console output missing fields: %s", out)
	}
}
