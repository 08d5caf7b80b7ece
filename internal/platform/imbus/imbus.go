// Package imbus reads whether a Linux input method is producing native
// script, from Fcitx5 or IBus over D-Bus.
package imbus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"osk/internal/platform"
)

// Provider names accepted by Open.
const (
	ProviderAuto  = "auto"
	ProviderFcitx = "fcitx5"
	ProviderIBus  = "ibus"
)

const (
	fcitxDest  = "org.fcitx.Fcitx5"
	fcitxPath  = "/controller"
	fcitxIface = "org.fcitx.Fcitx.Controller1"

	ibusDest  = "org.freedesktop.IBus"
	ibusPath  = "/org/freedesktop/IBus"
	ibusIface = "org.freedesktop.IBus"
)

// Fcitx5 controller states.
const (
	fcitxClosed   int32 = 0
	fcitxInactive int32 = 1
	fcitxActive   int32 = 2
)

// ErrNoProvider is returned when no supported input method answers.
var ErrNoProvider = errors.New("imbus: no input method on the bus")

// Query is an IMEQuery backed by one input-method framework.
type Query struct {
	mu       sync.Mutex
	conn     *dbus.Conn
	provider string
	log      *slog.Logger
}

// Open connects to the framework named by provider. With "auto" Fcitx5 is
// tried first, then IBus.
func Open(provider string, log *slog.Logger) (*Query, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "imbus")

	var order []string
	switch strings.ToLower(provider) {
	case "", ProviderAuto:
		order = []string{ProviderFcitx, ProviderIBus}
	case ProviderFcitx, ProviderIBus:
		order = []string{strings.ToLower(provider)}
	default:
		return nil, fmt.Errorf("imbus: unknown provider %q", provider)
	}

	var errs []error
	for _, p := range order {
		conn, err := connect(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		q := &Query{conn: conn, provider: p, log: log}
		if _, err := q.ConversionState(); err != nil && !errors.Is(err, platform.ErrUnavailable) {
			conn.Close()
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		log.Info("input method provider", "provider", p)
		return q, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoProvider, errors.Join(errs...))
}

// connect returns the bus the provider lives on. IBus uses a private bus
// whose address is exported as IBUS_ADDRESS when it is not proxied onto the
// session bus.
func connect(provider string) (*dbus.Conn, error) {
	if provider == ProviderIBus {
		if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
			return dbus.Connect(addr)
		}
	}
	return dbus.ConnectSessionBus()
}

// Provider returns the framework in use.
func (q *Query) Provider() string { return q.provider }

// ConversionState reports whether the input method is in native mode.
func (q *Query) ConversionState() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.provider {
	case ProviderFcitx:
		var state int32
		err := q.conn.Object(fcitxDest, fcitxPath).Call(fcitxIface+".State", 0).Store(&state)
		if err != nil {
			return false, fmt.Errorf("imbus: fcitx5 state: %w", err)
		}
		return FcitxNative(state)
	default:
		v, err := q.conn.Object(ibusDest, ibusPath).GetProperty(ibusIface + ".GlobalEngine")
		if err != nil {
			return false, fmt.Errorf("imbus: ibus engine: %w", err)
		}
		name, ok := EngineName(v.Value())
		if !ok {
			return false, platform.ErrUnavailable
		}
		return IBusNative(name)
	}
}

// Close drops the bus connection.
func (q *Query) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.conn.Close()
}

// FcitxNative interprets Controller1.State. A closed input method has no
// state to report.
func FcitxNative(state int32) (bool, error) {
	switch state {
	case fcitxActive:
		return true, nil
	case fcitxInactive:
		return false, nil
	default:
		return false, platform.ErrUnavailable
	}
}

// IBusNative interprets a global engine name. Plain keyboard layouts are
// named "xkb:<layout>:<variant>:<lang>".
func IBusNative(engine string) (bool, error) {
	if engine == "" {
		return false, platform.ErrUnavailable
	}
	return !strings.HasPrefix(engine, "xkb:"), nil
}

// EngineName extracts the engine name from a serialized IBusEngineDesc,
// which is a struct of (type name, attachments, name, ...) possibly wrapped
// in variants.
func EngineName(v interface{}) (string, bool) {
	for {
		vv, ok := v.(dbus.Variant)
		if !ok {
			break
		}
		v = vv.Value()
	}
	fields, ok := v.([]interface{})
	if !ok || len(fields) < 3 {
		return "", false
	}
	if typ, _ := fields[0].(string); typ != "IBusEngineDesc" {
		return "", false
	}
	name, ok := fields[2].(string)
	return name, ok
}
