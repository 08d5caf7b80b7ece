//go:build linux

package backend

import (
	"fmt"
	"log/slog"
	"os"

	"osk/internal/config"
	"osk/internal/platform/atspi"
	"osk/internal/platform/imbus"
	"osk/internal/platform/uinput"
	"osk/internal/platform/x11"
)

// Open builds the X11 or uinput sink, the AT-SPI focus source and the
// input-method bus query.
func Open(cfg *config.Config, log *slog.Logger) (*Backend, error) {
	b := newBackend(log)

	name, err := ChooseLinuxInjector(cfg.Injector.Backend, Session{
		Display:     os.Getenv("DISPLAY"),
		WaylandDisp: os.Getenv("WAYLAND_DISPLAY"),
		SessionType: os.Getenv("XDG_SESSION_TYPE"),
	})
	if err != nil {
		return nil, err
	}

	switch name {
	case XTest:
		xb, err := x11.Open("", log)
		if err != nil {
			return nil, err
		}
		b.own(xb)
		b.Sink, b.Physical = xb, xb
	case UInput:
		s, err := uinput.Open(uinput.DefaultPath, log)
		if err != nil {
			return nil, err
		}
		b.own(s)
		b.Sink = s
		// Wayland offers no global key state; an X connection through
		// XWayland is still better than nothing when present.
		if os.Getenv("DISPLAY") != "" {
			if xb, err := x11.Open("", log); err == nil {
				b.own(xb)
				b.Physical = xb
			} else {
				b.log.Debug("no physical key state", "error", err)
			}
		}
	}
	b.Injector = name

	if cfg.IME.Enabled {
		provider := cfg.IME.Provider
		if provider == "imm" {
			b.Close()
			return nil, fmt.Errorf("%w: ime provider %q", ErrUnsupported, provider)
		}
		if q, err := imbus.Open(provider, log); err == nil {
			b.own(q)
			b.IME = q
		} else {
			b.log.Warn("input method state unavailable", "error", err)
		}
	}

	if f, err := atspi.Connect(log); err == nil {
		b.Focus, b.Caret = f, f
	} else {
		b.log.Warn("focus tracking unavailable", "error", err)
	}

	b.log.Info("backend ready", "injector", b.Injector,
		"physical", b.Physical != nil, "ime", b.IME != nil, "focus", b.Focus != nil)
	return b, nil
}
