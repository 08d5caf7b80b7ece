package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		parsed, err := ParseLevel(LevelString(level))
		if err != nil || parsed != level {
			t.Errorf("round trip of %v gave %v, %v", level, parsed, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("json: got %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("empty: got %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if !strings.Contains(cfg.FilePath, "osk") {
		t.Errorf("unexpected default path %s", cfg.FilePath)
	}
}

func TestShouldRedact(t *testing.T) {
	tests := map[string]bool{
		"password":    true,
		"label_text":  true,
		"Value":       true,
		"api_token":   true,
		"code":        false,
		"role":        false,
		"component":   false,
		"script_mode": false,
	}
	for key, want := range tests {
		if got := shouldRedact(key); got != want {
			t.Errorf("shouldRedact(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestJSONFormatAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	logger := slog.New(NewHandler(&buf, cfg, LevelDebug))
	rec := map[string]any{}
	logger.Info("focus", "role", "edit", "text", "hunter2")

	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec["role"] != "edit" {
		t.Errorf("role = %v", rec["role"])
	}
	if rec["text"] != "[REDACTED]" {
		t.Errorf("text was not redacted: %v", rec["text"])
	}
	if rec["app"] != "osk" {
		t.Errorf("app = %v", rec["app"])
	}
}

func TestSetLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "osk.log")

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.WithComponent("test").Debug("hidden")
	l.SetLevel(LevelDebug)
	l.WithComponent("test").Debug("shown")

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(string(data), "shown") || !strings.Contains(string(data), "component=test") {
		t.Errorf("missing record: %s", data)
	}
}

func TestFileRotatorRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osk.log")
	r, err := NewFileRotator(&Config{FilePath: path, MaxSize: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewFileRotator: %v", err)
	}
	// Shrink the limit so a few writes force rotation.
	r.maxBytes = 64

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 10; i++ {
		if _, err := r.Write(line); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	backups, err := r.Backups()
	if err != nil {
		t.Fatalf("backups: %v", err)
	}
	if len(backups) == 0 || len(backups) > 2 {
		t.Errorf("expected 1-2 backups, got %d: %v", len(backups), backups)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current: %v", err)
	}
	if info.Size() > 64 {
		t.Errorf("current file not rotated, size %d", info.Size())
	}
}

func TestCrashGuardRunsHooksAndRepanics(t *testing.T) {
	dir := t.TempDir()
	released := false
	g := &CrashGuard{Dir: dir, Component: "engine", Log: Discard()}
	g.OnCrash(func() { released = true })

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic was swallowed")
			}
		}()
		defer g.Recover()
		panic("boom")
	}()

	if !released {
		t.Error("crash hook did not run")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "crash-engine-*.json"))
	if len(matches) != 1 {
		t.Fatalf("expected one report, got %v", matches)
	}
}
