package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"osk/internal/mode"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Mode.EchoWindow() != 300*time.Millisecond {
		t.Errorf("expected 300ms echo window, got %v", cfg.Mode.EchoWindow())
	}
	if cfg.Mode.LongPress() != 200*time.Millisecond {
		t.Errorf("expected 200ms long press, got %v", cfg.Mode.LongPress())
	}
	if cfg.Sync.Tick() != 30*time.Millisecond || cfg.Sync.IMEPoll() != 60*time.Millisecond || cfg.Sync.CaretPoll() != 400*time.Millisecond {
		t.Errorf("unexpected poll intervals: %+v", cfg.Sync)
	}
	if cfg.Keyboard.InitialScriptMode() != mode.NativeScript {
		t.Errorf("expected native initial mode")
	}
	if !strings.HasSuffix(cfg.IPC.SocketPath, "osk.sock") {
		t.Errorf("unexpected socket path: %s", cfg.IPC.SocketPath)
	}
	if !strings.HasSuffix(cfg.Journal.Path, "journal.db") {
		t.Errorf("unexpected journal path: %s", cfg.Journal.Path)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("OSK_CONFIG_DIR", "/tmp/osk-test")
	if got := ConfigPath(); got != filepath.Join("/tmp/osk-test", "config.toml") {
		t.Errorf("unexpected config path %s", got)
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Keyboard.Layout != "zhuyin" {
		t.Errorf("expected defaults, got layout %q", cfg.Keyboard.Layout)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = 1

[mode]
echo_suppression_ms = 500

[focus]
shell_names = ["Start"]

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode.EchoSuppressionMs != 500 {
		t.Errorf("expected 500, got %d", cfg.Mode.EchoSuppressionMs)
	}
	if cfg.Mode.LongPressMs != 200 {
		t.Errorf("unset field lost its default: %d", cfg.Mode.LongPressMs)
	}
	if len(cfg.Focus.ShellNames) != 1 || cfg.Focus.Rules().ShellNames[0] != "Start" {
		t.Errorf("unexpected shell names %v", cfg.Focus.ShellNames)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"config.json": `{"injector": {"backend": "uinput"}, "sync": {"tick_ms": 20}}`,
		"config.yaml": "injector:\n  backend: uinput\nsync:\n  tick_ms: 20\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Injector.Backend != "uinput" || cfg.Sync.TickMs != 20 {
				t.Errorf("unexpected values: %+v %+v", cfg.Injector, cfg.Sync)
			}
		})
	}
}

func TestLoadUnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[mode]\necho_supression_ms = 10\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestLoadWrongTypeRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ime:\n  enabled: \"yes\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a string boolean")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[mode\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"version", func(c *Config) { c.Version = 9 }, "version"},
		{"layout", func(c *Config) { c.Keyboard.Layout = "qwerty" }, "keyboard.layout"},
		{"initial mode", func(c *Config) { c.Keyboard.InitialMode = "both" }, "keyboard.initial_mode"},
		{"echo", func(c *Config) { c.Mode.EchoSuppressionMs = -1 }, "mode.echo_suppression_ms"},
		{"long press", func(c *Config) { c.Mode.LongPressMs = 10 }, "mode.long_press_ms"},
		{"tick", func(c *Config) { c.Sync.TickMs = 0 }, "sync.tick_ms"},
		{"empty marker", func(c *Config) { c.Focus.ShellNames = []string{" "} }, "focus.shell_names[0]"},
		{"backend", func(c *Config) { c.Injector.Backend = "evdev" }, "injector.backend"},
		{"provider", func(c *Config) { c.IME.Provider = "scim" }, "ime.provider"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"journal path", func(c *Config) { c.Journal.Enabled = true; c.Journal.Path = "" }, "journal.path"},
		{"permissions", func(c *Config) { c.IPC.Permissions = "rw" }, "ipc.permissions"},
		{"metrics listen", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Listen = "9464" }, "metrics.listen"},
		{"window", func(c *Config) { c.Window.Width = 10 }, "window.width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			fields := verrs.Fields()
			if len(fields) != 1 || fields[0] != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, fields)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OSK_LOG_LEVEL", "WARN")
	t.Setenv("OSK_ECHO_MS", "450")
	t.Setenv("OSK_INJECTOR", "xtest")
	t.Setenv("OSK_SOCKET", "/tmp/other.sock")
	t.Setenv("OSK_JOURNAL", "/tmp/j.db")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
	if cfg.Mode.EchoSuppressionMs != 450 {
		t.Errorf("echo = %d", cfg.Mode.EchoSuppressionMs)
	}
	if cfg.Injector.Backend != "xtest" {
		t.Errorf("backend = %s", cfg.Injector.Backend)
	}
	if cfg.IPC.SocketPath != "/tmp/other.sock" {
		t.Errorf("socket = %s", cfg.IPC.SocketPath)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path != "/tmp/j.db" {
		t.Errorf("journal = %+v", cfg.Journal)
	}

	t.Setenv("OSK_JOURNAL", "off")
	t.Setenv("OSK_ECHO_MS", "soon")
	cfg.ApplyEnvOverrides()
	if cfg.Journal.Enabled {
		t.Error("journal should be disabled")
	}
	if cfg.Mode.EchoSuppressionMs != 450 {
		t.Errorf("bad env value replaced echo: %d", cfg.Mode.EchoSuppressionMs)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.toml", "config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Mode.LongPressMs = 350
			cfg.Focus.MediaNameMarkers = []string{"Image"}

			if err := Save(cfg, path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded.Mode.LongPressMs != 350 {
				t.Errorf("long press = %d", loaded.Mode.LongPressMs)
			}
			if len(loaded.Focus.MediaNameMarkers) != 1 || loaded.Focus.MediaNameMarkers[0] != "Image" {
				t.Errorf("markers = %v", loaded.Focus.MediaNameMarkers)
			}
		})
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	_, created, err := LoadOrCreate(path)
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}
	_, created, err = LoadOrCreate(path)
	if err != nil || created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Focus.ShellNames[0] = "changed"
	if cfg.Focus.ShellNames[0] == "changed" {
		t.Error("Clone shares slices")
	}
}

func TestLoggingOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "json"
	opts, err := cfg.Logging.LoggingOptions()
	if err != nil {
		t.Fatalf("LoggingOptions: %v", err)
	}
	if opts.MaxSize != 10 || opts.MaxBackups != 3 {
		t.Errorf("unexpected rotation settings %+v", opts)
	}
}

func TestReloadNotifiesAndKeepsOldOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[mode]\nlong_press_ms = 250\n"), 0600); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(path)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var gotOld, gotNew int
	l.OnChange(func(old, new *Config) {
		gotOld = old.Mode.LongPressMs
		gotNew = new.Mode.LongPressMs
	})

	if err := os.WriteFile(path, []byte("[mode]\nlong_press_ms = 400\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if gotOld != 250 || gotNew != 400 {
		t.Errorf("callback saw %d -> %d", gotOld, gotNew)
	}

	if err := os.WriteFile(path, []byte("[mode]\nlong_press_ms = 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := l.Reload(); err == nil {
		t.Fatal("expected validation error")
	}
	if l.Config().Mode.LongPressMs != 400 {
		t.Errorf("invalid reload replaced config: %d", l.Config().Mode.LongPressMs)
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sync]\ntick_ms = 30\n"), 0600); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(path)
	if _, err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	changed := make(chan int, 4)
	l.OnChange(func(_, new *Config) { changed <- new.Sync.TickMs })
	if err := l.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer l.Close()

	if err := os.WriteFile(path, []byte("[sync]\ntick_ms = 40\n"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changed:
		if got != 40 {
			t.Errorf("tick = %d", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}
