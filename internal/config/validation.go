package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrInvalidConfig) match any validation failure.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Fields returns the names of the invalid fields.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, err := range e {
		fields = append(fields, err.Field)
	}
	return fields
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateKeyboard(&c.Keyboard)...)
	errs = append(errs, validateMode(&c.Mode)...)
	errs = append(errs, validateSync(&c.Sync)...)
	errs = append(errs, validateFocus(&c.Focus)...)
	errs = append(errs, validateInjector(&c.Injector)...)
	errs = append(errs, validateIME(&c.IME)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateJournal(&c.Journal)...)
	errs = append(errs, validateIPC(&c.IPC)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)
	errs = append(errs, validateWindow(&c.Window)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateKeyboard(k *KeyboardConfig) ValidationErrors {
	var errs ValidationErrors

	if k.Layout != "zhuyin" {
		errs = append(errs, ValidationError{
			Field:   "keyboard.layout",
			Message: fmt.Sprintf("unknown layout: %s (valid: zhuyin)", k.Layout),
		})
	}

	switch k.InitialMode {
	case "latin", "native":
	default:
		errs = append(errs, ValidationError{
			Field:   "keyboard.initial_mode",
			Message: fmt.Sprintf("invalid mode: %s (valid: latin, native)", k.InitialMode),
		})
	}

	return errs
}

func validateMode(m *ModeConfig) ValidationErrors {
	var errs ValidationErrors

	if m.EchoSuppressionMs < 0 || m.EchoSuppressionMs > 5000 {
		errs = append(errs, *RangeError("mode.echo_suppression_ms", 0, 5000))
	}
	if m.LongPressMs < 50 || m.LongPressMs > 5000 {
		errs = append(errs, *RangeError("mode.long_press_ms", 50, 5000))
	}

	return errs
}

func validateSync(s *SyncConfig) ValidationErrors {
	var errs ValidationErrors

	if s.TickMs < 5 || s.TickMs > 1000 {
		errs = append(errs, *RangeError("sync.tick_ms", 5, 1000))
	}
	if s.IMEPollMs < 10 || s.IMEPollMs > 5000 {
		errs = append(errs, *RangeError("sync.ime_poll_ms", 10, 5000))
	}
	if s.CaretPollMs < 50 || s.CaretPollMs > 10000 {
		errs = append(errs, *RangeError("sync.caret_poll_ms", 50, 10000))
	}

	return errs
}

func validateFocus(f *FocusConfig) ValidationErrors {
	var errs ValidationErrors

	check := func(field string, values []string) {
		for i, v := range values {
			if strings.TrimSpace(v) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("focus.%s[%d]", field, i),
					Message: "empty marker would match every element",
				})
			}
		}
	}
	check("shell_class_markers", f.ShellClassMarkers)
	check("shell_names", f.ShellNames)
	check("media_name_markers", f.MediaNameMarkers)

	return errs
}

func validateInjector(i *InjectorConfig) ValidationErrors {
	switch i.Backend {
	case "auto", "sendinput", "xtest", "uinput":
		return nil
	}
	return ValidationErrors{{
		Field:   "injector.backend",
		Message: fmt.Sprintf("invalid backend: %s (valid: auto, sendinput, xtest, uinput)", i.Backend),
	}}
}

func validateIME(i *IMEConfig) ValidationErrors {
	switch i.Provider {
	case "auto", "imm", "fcitx5", "ibus":
		return nil
	}
	return ValidationErrors{{
		Field:   "ime.provider",
		Message: fmt.Sprintf("invalid provider: %s (valid: auto, imm, fcitx5, ibus)", i.Provider),
	}}
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	return errs
}

func validateJournal(j *JournalConfig) ValidationErrors {
	var errs ValidationErrors

	if !j.Enabled {
		return errs
	}

	if j.Path == "" {
		errs = append(errs, *RequiredFieldError("journal.path"))
	}
	if j.QueueSize < 1 || j.QueueSize > 65536 {
		errs = append(errs, *RangeError("journal.queue_size", 1, 65536))
	}
	if j.RetainDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "journal.retain_days",
			Message: "retention cannot be negative",
		})
	}

	return errs
}

var permissionsPattern = regexp.MustCompile(`^0[0-7]{3}$`)

func validateIPC(i *IPCConfig) ValidationErrors {
	var errs ValidationErrors

	if !i.Enabled {
		return errs
	}

	if i.SocketPath == "" {
		errs = append(errs, ValidationError{
			Field:   "ipc.socket_path",
			Message: "socket path is required when IPC is enabled",
		})
	}

	if i.Permissions != "" && !permissionsPattern.MatchString(i.Permissions) {
		errs = append(errs, ValidationError{
			Field:   "ipc.permissions",
			Message: fmt.Sprintf("invalid permissions format: %s (expected octal like 0600)", i.Permissions),
		})
	}

	if i.TimeoutSec < 1 {
		errs = append(errs, ValidationError{
			Field:   "ipc.timeout_sec",
			Message: "timeout must be at least 1 second",
		})
	}

	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Listen); err != nil {
		return ValidationErrors{{
			Field:   "metrics.listen",
			Message: fmt.Sprintf("invalid listen address %q: %v", m.Listen, err),
		}}
	}
	return nil
}

func validateWindow(w *WindowConfig) ValidationErrors {
	var errs ValidationErrors

	if w.Width < 200 {
		errs = append(errs, ValidationError{
			Field:   "window.width",
			Message: "width must be at least 200",
		})
	}
	if w.Height < 80 {
		errs = append(errs, ValidationError{
			Field:   "window.height",
			Message: "height must be at least 80",
		})
	}

	return errs
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
