// Package config handles configuration loading, validation, and management for osk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"osk/internal/focusgate"
	"osk/internal/logging"
	"osk/internal/mode"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete keyboard configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Keyboard layout and sizing.
	Keyboard KeyboardConfig `toml:"keyboard" json:"keyboard" yaml:"keyboard"`

	// Mode configuration for script switching.
	Mode ModeConfig `toml:"mode" json:"mode" yaml:"mode"`

	// Sync configuration for the periodic polls.
	Sync SyncConfig `toml:"sync" json:"sync" yaml:"sync"`

	// Focus configuration for automatic show/hide.
	Focus FocusConfig `toml:"focus" json:"focus" yaml:"focus"`

	// Injector selects the key injection backend.
	Injector InjectorConfig `toml:"injector" json:"injector" yaml:"injector"`

	// IME selects where the input-method conversion state is read from.
	IME IMEConfig `toml:"ime" json:"ime" yaml:"ime"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Journal configuration for the diagnostic history.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`

	// IPC configuration for the control socket.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Metrics configuration.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`

	// Window configuration for the keyboard surface.
	Window WindowConfig `toml:"window" json:"window" yaml:"window"`
}

// KeyboardConfig holds layout configuration.
type KeyboardConfig struct {
	// Layout names the key catalog. Only "zhuyin" ships today.
	Layout string `toml:"layout" json:"layout" yaml:"layout"`

	// InitialMode is "latin" or "native".
	InitialMode string `toml:"initial_mode" json:"initial_mode" yaml:"initial_mode"`
}

// ModeConfig holds script-mode timing.
type ModeConfig struct {
	// EchoSuppressionMs is how long IME polls are ignored after the
	// keyboard itself taps the switch key.
	EchoSuppressionMs int `toml:"echo_suppression_ms" json:"echo_suppression_ms" yaml:"echo_suppression_ms"`

	// LongPressMs is how long the mode key must be held to flip the mode
	// locally.
	LongPressMs int `toml:"long_press_ms" json:"long_press_ms" yaml:"long_press_ms"`
}

// SyncConfig holds poll intervals.
type SyncConfig struct {
	// TickMs drives physical modifier, caps lock and pressed-key sync.
	TickMs int `toml:"tick_ms" json:"tick_ms" yaml:"tick_ms"`

	// IMEPollMs drives external mode reconciliation.
	IMEPollMs int `toml:"ime_poll_ms" json:"ime_poll_ms" yaml:"ime_poll_ms"`

	// CaretPollMs drives the caret presence check.
	CaretPollMs int `toml:"caret_poll_ms" json:"caret_poll_ms" yaml:"caret_poll_ms"`
}

// FocusConfig holds focus gate configuration.
type FocusConfig struct {
	// AutoShow enables showing and hiding on focus changes.
	AutoShow bool `toml:"auto_show" json:"auto_show" yaml:"auto_show"`

	// ShellClassMarkers hide the keyboard when the class name contains one.
	ShellClassMarkers []string `toml:"shell_class_markers" json:"shell_class_markers" yaml:"shell_class_markers"`

	// ShellNames hide the keyboard when the element name equals one.
	ShellNames []string `toml:"shell_names" json:"shell_names" yaml:"shell_names"`

	// MediaNameMarkers mark picture-like documents as not editable.
	MediaNameMarkers []string `toml:"media_name_markers" json:"media_name_markers" yaml:"media_name_markers"`
}

// InjectorConfig holds injection backend configuration.
type InjectorConfig struct {
	// Backend is "auto", "sendinput", "xtest" or "uinput".
	Backend string `toml:"backend" json:"backend" yaml:"backend"`
}

// IMEConfig holds input-method query configuration.
type IMEConfig struct {
	// Enabled turns reconciliation with the input method on.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Provider is "auto", "imm", "fcitx5" or "ibus".
	Provider string `toml:"provider" json:"provider" yaml:"provider"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// JournalConfig holds the diagnostic journal configuration.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`

	// QueueSize bounds pending writes. Entries beyond it are dropped.
	QueueSize int `toml:"queue_size" json:"queue_size" yaml:"queue_size"`

	// RetainDays prunes older entries at startup. Zero keeps everything.
	RetainDays int `toml:"retain_days" json:"retain_days" yaml:"retain_days"`
}

// IPCConfig holds control socket configuration.
type IPCConfig struct {
	// Enabled determines whether the IPC server is started.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// SocketPath is the path to the Unix socket.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// Permissions is the Unix socket permissions (e.g., "0600").
	Permissions string `toml:"permissions" json:"permissions" yaml:"permissions"`

	// TimeoutSec is the per-connection timeout.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Listen is the host:port of the /metrics endpoint.
	Listen string `toml:"listen" json:"listen" yaml:"listen"`
}

// WindowConfig holds keyboard window configuration.
type WindowConfig struct {
	Width  int `toml:"width" json:"width" yaml:"width"`
	Height int `toml:"height" json:"height" yaml:"height"`

	// StartHidden keeps the keyboard minimized until an editable element
	// gains focus.
	StartHidden bool `toml:"start_hidden" json:"start_hidden" yaml:"start_hidden"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	rules := focusgate.DefaultRules()
	paths := GetDefaultPaths()

	return &Config{
		Version: Version,
		Keyboard: KeyboardConfig{
			Layout:      "zhuyin",
			InitialMode: "native",
		},
		Mode: ModeConfig{
			EchoSuppressionMs: int(mode.DefaultEchoWindow / time.Millisecond),
			LongPressMs:       200,
		},
		Sync: SyncConfig{
			TickMs:      30,
			IMEPollMs:   60,
			CaretPollMs: 400,
		},
		Focus: FocusConfig{
			AutoShow:          true,
			ShellClassMarkers: rules.ShellClassMarkers,
			ShellNames:        rules.ShellNames,
			MediaNameMarkers:  rules.MediaNameMarkers,
		},
		Injector: InjectorConfig{
			Backend: "auto",
		},
		IME: IMEConfig{
			Enabled:  true,
			Provider: "auto",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   true,
		},
		Journal: JournalConfig{
			Enabled:    false,
			Path:       paths.JournalFile,
			QueueSize:  256,
			RetainDays: 30,
		},
		IPC: IPCConfig{
			Enabled:     true,
			SocketPath:  paths.SocketPath,
			Permissions: "0600",
			TimeoutSec:  5,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9464",
		},
		Window: WindowConfig{
			Width:  1000,
			Height: 330,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(OskDir(), "config.toml")
}

// OskDir returns the base osk configuration directory.
// OSK_CONFIG_DIR overrides the platform default.
func OskDir() string {
	if envDir := os.Getenv("OSK_CONFIG_DIR"); envDir != "" {
		return envDir
	}
	return PlatformConfigDir()
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	return NewLoader(path).Load()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}
	if c.Journal.Enabled {
		dirs = append(dirs, filepath.Dir(c.Journal.Path))
	}
	if c.IPC.Enabled {
		dirs = append(dirs, filepath.Dir(c.IPC.SocketPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Unparseable values are ignored and the file value is kept.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OSK_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("OSK_ECHO_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Mode.EchoSuppressionMs = ms
		}
	}
	if v := os.Getenv("OSK_INJECTOR"); v != "" {
		c.Injector.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("OSK_SOCKET"); v != "" {
		c.IPC.SocketPath = v
	}
	if v := os.Getenv("OSK_JOURNAL"); v != "" {
		switch strings.ToLower(v) {
		case "0", "off", "false":
			c.Journal.Enabled = false
		case "1", "on", "true":
			c.Journal.Enabled = true
		default:
			c.Journal.Enabled = true
			c.Journal.Path = v
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Focus.ShellClassMarkers = append([]string{}, c.Focus.ShellClassMarkers...)
	clone.Focus.ShellNames = append([]string{}, c.Focus.ShellNames...)
	clone.Focus.MediaNameMarkers = append([]string{}, c.Focus.MediaNameMarkers...)
	return &clone
}

// EchoWindow returns the echo suppression duration.
func (m ModeConfig) EchoWindow() time.Duration {
	return time.Duration(m.EchoSuppressionMs) * time.Millisecond
}

// LongPress returns the long-press threshold.
func (m ModeConfig) LongPress() time.Duration {
	return time.Duration(m.LongPressMs) * time.Millisecond
}

// Tick returns the sync tick interval.
func (s SyncConfig) Tick() time.Duration {
	return time.Duration(s.TickMs) * time.Millisecond
}

// IMEPoll returns the IME poll interval.
func (s SyncConfig) IMEPoll() time.Duration {
	return time.Duration(s.IMEPollMs) * time.Millisecond
}

// CaretPoll returns the caret poll interval.
func (s SyncConfig) CaretPoll() time.Duration {
	return time.Duration(s.CaretPollMs) * time.Millisecond
}

// Rules converts the focus section to classifier rules.
func (f FocusConfig) Rules() focusgate.Rules {
	return focusgate.Rules{
		ShellClassMarkers: append([]string{}, f.ShellClassMarkers...),
		ShellNames:        append([]string{}, f.ShellNames...),
		MediaNameMarkers:  append([]string{}, f.MediaNameMarkers...),
	}
}

// InitialScriptMode parses Keyboard.InitialMode.
func (k KeyboardConfig) InitialScriptMode() mode.ScriptMode {
	if k.InitialMode == "latin" {
		return mode.Latin
	}
	return mode.NativeScript
}

// LoggingOptions converts the logging section for logging.New.
func (l LoggingConfig) LoggingOptions() (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = l.Output
	cfg.FilePath = l.FilePath
	cfg.MaxSize = int64(l.MaxSizeMB)
	cfg.MaxBackups = l.MaxBackups
	cfg.Compress = l.Compress
	return cfg, nil
}
