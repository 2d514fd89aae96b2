package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestNewStyles(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	if styles == nil {
		t.Fatal("NewStyles should return non-nil Styles")
	}

	if styles.Output() == nil {
		t.Error("Styles should have non-nil output")
	}
}

func TestStylesPlainWriter(t *testing.T) {
	// A buffer is not a terminal, so no escape sequences are emitted.
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	for name, fn := range map[string]func(string) string{
		"Success":    styles.Success,
		"Error":      styles.Error,
		"FileName":   styles.FileName,
		"Match":      styles.Match,
		"LineNumber": styles.LineNumber,
		"Keyword":    styles.Keyword,
		"Dim":        styles.Dim,
		"Warning":    styles.Warning,
	} {
		if got := fn("text"); got != "text" {
			t.Errorf("%s() on a plain writer = %q, want %q", name, got, "text")
		}
	}
}

func TestStylesColored(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStylesWithProfile(&buf, termenv.ANSI)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"FileName", styles.FileName("main.c"), "\x1b[34mmain.c\x1b[0m"},
		{"Match", styles.Match("foo"), "\x1b[31mfoo\x1b[0m"},
		{"LineNumber", styles.LineNumber("12"), "\x1b[2m12\x1b[0m"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestStylesTiming(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStylesWithProfile(&buf, termenv.ANSI)

	slow := styles.Timing("1.20s", true)
	fast := styles.Timing("3ms", false)

	if !strings.Contains(slow, "1.20s") || !strings.Contains(slow, "31") {
		t.Errorf("slow timing should be red, got: %q", slow)
	}
	if fast != styles.Dim("3ms") {
		t.Errorf("fast timing should be dimmed, got: %q", fast)
	}
}
