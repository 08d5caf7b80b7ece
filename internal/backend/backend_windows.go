//go:build windows

package backend

import (
	"fmt"
	"log/slog"
	"strings"

	"osk/internal/config"
	"osk/internal/platform/win32"
)

// Open builds the Win32 adapters.
func Open(cfg *config.Config, log *slog.Logger) (*Backend, error) {
	b := newBackend(log)

	switch strings.ToLower(cfg.Injector.Backend) {
	case "", Auto, SendInput:
	default:
		return nil, fmt.Errorf("%w: injector %q", ErrUnsupported, cfg.Injector.Backend)
	}
	b.Injector = SendInput
	b.Sink = win32.NewSink()
	b.Physical = win32.NewPhysical()
	b.Caret = win32.NewCaret()

	if cfg.IME.Enabled {
		switch strings.ToLower(cfg.IME.Provider) {
		case "", "auto", "imm":
			b.IME = win32.NewIME()
		default:
			return nil, fmt.Errorf("%w: ime provider %q", ErrUnsupported, cfg.IME.Provider)
		}
	}
	b.Focus = win32.NewFocus(log)

	b.log.Info("backend ready", "injector", b.Injector, "ime", b.IME != nil)
	return b, nil
}
