package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amonks/tasks/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSONToStderr(t *testing.T) {
	var stderr bytes.Buffer
	logger, err := New(config.Log{Level: "info", Format: "json", Output: "stderr"}, Options{Stderr: &stderr})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("task added", zap.Int("task_id", 3))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), stderr.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected json line: %v", err)
	}
	if entry["message"] != "task added" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["task_id"] != float64(3) {
		t.Fatalf("expected task_id field, got %v", entry["task_id"])
	}
}

func TestNewConsoleToStdout(t *testing.T) {
	var stdout bytes.Buffer
	logger, err := New(config.Log{Level: "debug", Format: "console", Output: "stdout"}, Options{Stdout: &stdout})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("visible")
	_ = logger.Sync()

	if !strings.Contains(stdout.String(), "visible") || !strings.Contains(stdout.String(), "debug") {
		t.Fatalf("expected debug line on stdout, got %q", stdout.String())
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tk.log")
	logger, err := New(config.Log{Level: "warn", Format: "json", Output: path, MaxSizeMB: 1}, Options{})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("skipped")
	logger.Warn("written")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "skipped") || !strings.Contains(string(data), "written") {
		t.Fatalf("unexpected log file contents: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; expected %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
