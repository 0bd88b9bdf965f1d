package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "OFF", want: LevelOff},
		{in: "ERROR", want: LevelError},
		{in: "warn", want: LevelWarn},
		{in: "Info", want: LevelInfo},
		{in: "TRACE", want: LevelTrace},
		{in: "VERBOSE", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected an error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	t.Parallel()
	if got, want := LevelWarn.String(), "WARN"; got != want {
		t.Errorf("LevelWarn.String() = %q, want %q", got, want)
	}
	if got, want := LevelTrace.String(), "TRACE"; got != want {
		t.Errorf("LevelTrace.String() = %q, want %q", got, want)
	}
}

func TestLoggerLevelGating(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewLogger(LevelWarn, &buf)

	l.Info("info message")
	l.Infof("info %s", "formatted")
	l.Debug("debug message")
	if buf.Len() != 0 {
		t.Errorf("below-level output was written: %q", buf.String())
	}

	l.Warn("warn message")
	l.Errorf("error %s", "formatted")
	out := buf.String()
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn output missing from: %q", out)
	}
	if !strings.Contains(out, "error formatted") {
		t.Errorf("error output missing from: %q", out)
	}
	if !strings.Contains(out, "WARN :") || !strings.Contains(out, "ERROR:") {
		t.Errorf("level prefixes missing from: %q", out)
	}
}

func TestLoggerOffWritesNothing(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewLogger(LevelOff, &buf)

	l.Error("should not appear")
	l.Tracef("should not appear either")
	if buf.Len() != 0 {
		t.Errorf("LevelOff logger wrote output: %q", buf.String())
	}
}
