package env

import (
	"log/slog"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	t.Setenv("ORDERFLOW_TEST_KEY", "set")
	if got := Get("ORDERFLOW_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("Get() = %q, want %q", got, "set")
	}
	if got := Get("ORDERFLOW_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Get() = %q, want %q", got, "fallback")
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("ORDERFLOW_TEST_INT", "42")
	if got := GetInt("ORDERFLOW_TEST_INT", 7); got != 42 {
		t.Errorf("GetInt() = %d, want 42", got)
	}
	t.Setenv("ORDERFLOW_TEST_INT", "not a number")
	if got := GetInt("ORDERFLOW_TEST_INT", 7); got != 7 {
		t.Errorf("GetInt() = %d, want fallback 7", got)
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("ORDERFLOW_TEST_DUR", "250ms")
	if got := GetDuration("ORDERFLOW_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("GetDuration() = %v, want 250ms", got)
	}
	if got := GetDuration("ORDERFLOW_TEST_DUR_UNSET", time.Second); got != time.Second {
		t.Errorf("GetDuration() = %v, want fallback 1s", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.raw)
		if got := ParseLogLevel(slog.LevelInfo); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
