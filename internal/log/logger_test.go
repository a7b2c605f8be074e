package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModuleTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	Module(logger, "core.registry").Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "core.registry") || !strings.Contains(out, "hello") {
		t.Fatalf("expected module field in output, got %q", out)
	}
}

func TestModuleNilParent(t *testing.T) {
	// must not panic
	Module(nil, "x").Info().Msg("dropped")
}
