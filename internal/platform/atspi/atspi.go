package atspi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"osk/internal/platform"
)

const (
	a11yBusDest  = "org.a11y.Bus"
	a11yBusPath  = "/org/a11y/bus"
	registryDest = "org.a11y.atspi.Registry"
	registryPath = "/org/a11y/atspi/registry"

	ifaceAccessible  = "org.a11y.atspi.Accessible"
	ifaceEventObject = "org.a11y.atspi.Event.Object"

	focusEvent = "object:state-changed:focused"
)

// ErrNoBus is returned when the accessibility bus cannot be reached.
var ErrNoBus = errors.New("atspi: accessibility bus unavailable")

type target struct {
	sender string
	path   dbus.ObjectPath
	pid    int
	text   bool
}

// Focus is a FocusSource and CaretQuery over the AT-SPI bus.
type Focus struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	ch      chan platform.FocusChange
	log     *slog.Logger

	mu   sync.Mutex
	last target

	stop    chan struct{}
	stopped chan struct{}
	started bool
	once    sync.Once
}

// Connect asks the session bus for the accessibility bus address and
// connects to it.
func Connect(log *slog.Logger) (*Focus, error) {
	if log == nil {
		log = slog.Default()
	}
	session, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: session bus: %v", ErrNoBus, err)
	}
	var addr string
	if err := session.Object(a11yBusDest, a11yBusPath).Call(a11yBusDest+".GetAddress", 0).Store(&addr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBus, err)
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrNoBus, addr, err)
	}
	return &Focus{
		conn:    conn,
		signals: make(chan *dbus.Signal, 64),
		ch:      make(chan platform.FocusChange, 16),
		log:     log.With("component", "atspi"),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

func (f *Focus) Changes() <-chan platform.FocusChange { return f.ch }

// Start subscribes to focus state changes.
func (f *Focus) Start(ctx context.Context) error {
	err := f.conn.AddMatchSignal(
		dbus.WithMatchInterface(ifaceEventObject),
		dbus.WithMatchMember("StateChanged"),
	)
	if err != nil {
		return fmt.Errorf("atspi: add match: %w", err)
	}
	// Registration is required by at-spi2-core 2.48+ and ignored by older
	// registries.
	reg := f.conn.Object(registryDest, registryPath)
	if call := reg.Call(registryDest+".RegisterEvent", 0, focusEvent); call.Err != nil {
		f.log.Debug("register event", "error", call.Err)
	}
	f.conn.Signal(f.signals)

	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	go f.loop(ctx)
	return nil
}

func (f *Focus) loop(ctx context.Context) {
	defer close(f.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stop:
			return
		case sig, ok := <-f.signals:
			if !ok {
				return
			}
			if fc, ok := f.handle(sig); ok {
				f.deliver(fc)
			}
		}
	}
}

// handle turns a StateChanged signal into a focus change. Focus losses are
// ignored; the next gain replaces them.
func (f *Focus) handle(sig *dbus.Signal) (platform.FocusChange, bool) {
	if sig.Name != ifaceEventObject+".StateChanged" || len(sig.Body) < 2 {
		return platform.FocusChange{}, false
	}
	detail, _ := sig.Body[0].(string)
	gained, _ := sig.Body[1].(int32)
	if detail != "focused" || gained != 1 {
		return platform.FocusChange{}, false
	}
	info, err := f.inspect(sig.Sender, sig.Path)
	if err != nil {
		f.log.Debug("inspect focused element", "sender", sig.Sender, "path", sig.Path, "error", err)
		return platform.FocusChange{Err: platform.ErrElementGone}, true
	}
	f.mu.Lock()
	f.last = target{
		sender: sig.Sender,
		path:   sig.Path,
		pid:    info.PID,
		text:   info.implements(ifaceText),
	}
	f.mu.Unlock()
	return platform.FocusChange{Element: ElementFromInfo(info)}, true
}

func (f *Focus) inspect(sender string, path dbus.ObjectPath) (Info, error) {
	obj := f.conn.Object(sender, path)
	var in Info
	if err := obj.Call(ifaceAccessible+".GetRole", 0).Store(&in.Role); err != nil {
		return in, err
	}
	var states []uint32
	if err := obj.Call(ifaceAccessible+".GetState", 0).Store(&states); err != nil {
		return in, err
	}
	in.States = states
	if err := obj.Call(ifaceAccessible+".GetInterfaces", 0).Store(&in.Interfaces); err != nil {
		return in, err
	}
	if v, err := obj.GetProperty(ifaceAccessible + ".Name"); err == nil {
		in.Name, _ = v.Value().(string)
	}
	in.App = f.appName(sender)

	var pid uint32
	if err := f.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, sender).Store(&pid); err != nil {
		return in, err
	}
	in.PID = int(pid)
	return in, nil
}

// appName reads the application root's name. Failure leaves it empty.
func (f *Focus) appName(sender string) string {
	v, err := f.conn.Object(sender, "/org/a11y/atspi/accessible/root").GetProperty(ifaceAccessible + ".Name")
	if err != nil {
		return ""
	}
	s, _ := v.Value().(string)
	return trimName(s)
}

// CaretPresence reports a caret when the last focused element exposes Text
// and has a valid caret offset. AT-SPI has no system-wide caret.
func (f *Focus) CaretPresence() (platform.Caret, error) {
	f.mu.Lock()
	t := f.last
	f.mu.Unlock()
	if t.sender == "" || !t.text {
		return platform.Caret{}, nil
	}
	v, err := f.conn.Object(t.sender, t.path).GetProperty(ifaceText + ".CaretOffset")
	if err != nil {
		// The object went away with its caret.
		return platform.Caret{}, nil
	}
	off, _ := v.Value().(int32)
	return platform.Caret{Present: off >= 0, OwnerPID: t.pid}, nil
}

func (f *Focus) deliver(fc platform.FocusChange) {
	select {
	case f.ch <- fc:
	default:
		select {
		case <-f.ch:
		default:
		}
		select {
		case f.ch <- fc:
		default:
		}
	}
}

// Close stops the loop, drops the connection and closes the channel.
func (f *Focus) Close() error {
	var err error
	f.once.Do(func() {
		close(f.stop)
		f.mu.Lock()
		started := f.started
		f.mu.Unlock()
		if started {
			<-f.stopped
			f.conn.RemoveSignal(f.signals)
		}
		err = f.conn.Close()
		close(f.ch)
	})
	return err
}
