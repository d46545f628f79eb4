package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): got %v want %v", in, got, want)
		}
	}
}

func TestOpen_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tempo.log")
	logger, closer, err := Open(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("fetched worklogs", "count", 3)
	_ = closer.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "fetched worklogs") || !strings.Contains(s, "count=3") {
		t.Fatalf("log content: %q", s)
	}
	if strings.Contains(s, "hidden") {
		t.Fatalf("debug line should be filtered: %q", s)
	}
}

func TestRotate_ShiftsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tempo.log")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".1", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rotate(path, 5, 3); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be moved", path)
	}
	if b, _ := os.ReadFile(path + ".1"); string(b) != "0123456789" {
		t.Fatalf(".1: got %q", b)
	}
	if b, _ := os.ReadFile(path + ".2"); string(b) != "old" {
		t.Fatalf(".2: got %q", b)
	}
}
