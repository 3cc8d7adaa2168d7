package logging

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"  WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gigsnap.log")
	logger, err := New(Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
}

func TestComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "matcher")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Info("should be discarded")
}

func TestErrorAttrNil(t *testing.T) {
	attr := Error(nil)
	if !strings.Contains(attr.Value.String(), "<nil>") {
		t.Fatalf("unexpected nil error attr: %v", attr)
	}
}
