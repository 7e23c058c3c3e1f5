package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"info", LevelInfo},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelWarn.String() != "warn" || Level(42).String() != "info" {
		t.Errorf("unexpected level names: %q %q", LevelWarn, Level(42))
	}
}

// decodeLines parses one JSON object per output line
func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestBackends_ContextFieldsAndLevels(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZap} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: LevelInfo, Format: "json", Backend: backend, Output: &buf})

			ctx := WithUserID(WithRequestID(context.Background(), "req-7"), "user-3")
			reqLog := log.WithContext(ctx).With(String("route", "/api/v1/reflections"))

			reqLog.Debug("dropped below level")
			reqLog.Info("reflection created", Int("patterns", 2), Err(errors.New("none")))
			if err := Flush(log); err != nil {
				t.Logf("flush: %v", err)
			}

			entries := decodeLines(t, buf.String())
			if len(entries) != 1 {
				t.Fatalf("entries = %d, want 1:\n%s", len(entries), buf.String())
			}
			entry := entries[0]
			if entry["msg"] != "reflection created" {
				t.Errorf("msg = %v", entry["msg"])
			}
			for key, want := range map[string]any{
				"request_id": "req-7",
				"user_id":    "user-3",
				"route":      "/api/v1/reflections",
				"patterns":   float64(2),
				"error":      "none",
			} {
				if entry[key] != want {
					t.Errorf("%s = %v, want %v", key, entry[key], want)
				}
			}
			if log.Level() != LevelInfo {
				t.Errorf("Level() = %v", log.Level())
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || UserIDFromContext(ctx) != "" {
		t.Error("empty context should carry no ids")
	}
	if FromContext(ctx) == nil {
		t.Error("FromContext should fall back to the default logger")
	}

	ctx = WithRequestID(ctx, "")
	if RequestIDFromContext(ctx) == "" {
		t.Error("WithRequestID should generate an id when none is given")
	}

	nop := NewNop()
	if FromContext(WithLogger(ctx, nop)) != nop {
		t.Error("FromContext did not return the stored logger")
	}
	if err := Flush(nop); err != nil {
		t.Errorf("Flush(nop) = %v", err)
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(New(Config{Level: LevelDebug, Format: "json", Output: &buf}))
	Warn("default logger", String("k", "v"))

	entries := decodeLines(t, buf.String())
	if len(entries) != 1 || entries[0]["level"] != "WARN" || entries[0]["k"] != "v" {
		t.Errorf("entries = %v", entries)
	}
}
