// Package backend assembles the OS adapters the engine runs on.
package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"osk/internal/platform"
)

// Injector backend names.
const (
	Auto      = "auto"
	SendInput = "sendinput"
	XTest     = "xtest"
	UInput    = "uinput"
)

// ErrUnsupported is returned for a backend that does not exist on this OS.
var ErrUnsupported = errors.New("backend: not supported on this platform")

// Backend is the set of adapters for one session. Fields are nil when the
// OS offers no such facility; the engine treats that as "no information".
type Backend struct {
	// Injector names the key sink in use.
	Injector string

	Sink     platform.KeySink
	Physical platform.PhysicalKeys
	IME      platform.IMEQuery
	Caret    platform.CaretQuery
	Focus    platform.FocusSource

	closers []io.Closer
	log     *slog.Logger
}

func newBackend(log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{log: log.With("component", "backend")}
}

func (b *Backend) own(c io.Closer) {
	if c != nil {
		b.closers = append(b.closers, c)
	}
}

// Close releases every adapter in reverse order of creation. The focus
// source is closed by the engine that started it.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Session describes the Linux graphical session.
type Session struct {
	Display     string
	WaylandDisp string
	SessionType string
}

// ChooseLinuxInjector resolves "auto" to XTEST on X11 and uinput on Wayland.
// XWayland exports DISPLAY too, but XTEST there only reaches X clients.
func ChooseLinuxInjector(want string, s Session) (string, error) {
	switch strings.ToLower(want) {
	case XTest, UInput:
		return strings.ToLower(want), nil
	case "", Auto:
	default:
		return "", fmt.Errorf("%w: injector %q", ErrUnsupported, want)
	}
	wayland := s.WaylandDisp != "" || strings.EqualFold(s.SessionType, "wayland")
	switch {
	case wayland:
		return UInput, nil
	case s.Display != "":
		return XTest, nil
	default:
		return UInput, nil
	}
}
