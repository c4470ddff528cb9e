package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":       slog.LevelInfo,
		"info":   slog.LevelInfo,
		" DEBUG": slog.LevelDebug,
		"warn":   slog.LevelWarn,
		"error":  slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil {
			t.Fatalf("parseLevel(%q) error = %v", in, err)
		}
		if got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := parseLevel("loud"); err == nil {
		t.Fatal("parseLevel(loud) should fail")
	}
}

func TestFileHandlerReceivesBoundAttrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "manager.log")

	if err := Configure(LevelInfo); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := AddFileHandler(path); err != nil {
		t.Fatalf("AddFileHandler: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
		state.mu.Lock()
		state.attrs = nil
		install()
		state.mu.Unlock()
	})

	Bind("dongle_id", "abc123")
	slog.Info("manager start")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"manager start"`) {
		t.Fatalf("log file missing message: %s", line)
	}
	if !strings.Contains(line, `"dongle_id":"abc123"`) {
		t.Fatalf("log file missing bound attr: %s", line)
	}
}
