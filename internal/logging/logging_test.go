package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewRespectsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, true)
	l.Debug("hidden")
	l.Warn("shown", "key", "value")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug output should be suppressed: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Fatalf("warning missing: %q", out)
	}

	buf.Reset()
	New(&buf, true, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("debug output expected: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"", log.WarnLevel},
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"error", log.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %v, got %v (%v)", tt.in, tt.want, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}
