package x11

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"

	"osk/internal/keys"
	"osk/internal/platform"
)

// capsLockLED is the LED bit X servers conventionally tie to Caps Lock.
const capsLockLED = 1 << 0

// ErrNoKeycode is returned when the server mapping has no key for a code.
var ErrNoKeycode = errors.New("x11: no keycode for key")

// Backend is one X connection serving as KeySink and PhysicalKeys.
type Backend struct {
	mu     sync.Mutex
	conn   *xgb.Conn
	root   xproto.Window
	keymap *Keymap
	log    *slog.Logger
}

// Open connects to display (empty means $DISPLAY) and checks for XTEST.
func Open(display string, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: XTEST unavailable: %w", err)
	}
	b := &Backend{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
		log:  log.With("component", "x11"),
	}
	if err := b.RefreshMapping(); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

// RefreshMapping re-reads the server keyboard mapping.
func (b *Backend) RefreshMapping() error {
	si := xproto.Setup(b.conn)
	count := byte(si.MaxKeycode - si.MinKeycode + 1)
	reply, err := xproto.GetKeyboardMapping(b.conn, si.MinKeycode, count).Reply()
	if err != nil {
		return fmt.Errorf("x11: keyboard mapping: %w", err)
	}
	km := NewKeymap(si.MinKeycode, reply.KeysymsPerKeycode, reply.Keysyms)
	b.mu.Lock()
	b.keymap = km
	b.mu.Unlock()
	return nil
}

// Send fakes the events in order and waits for the server to process them.
func (b *Backend) Send(events []platform.KeyEvent) error {
	b.mu.Lock()
	km := b.keymap
	b.mu.Unlock()

	var missing []keys.Code
	for _, ev := range events {
		kc, ok := km.Keycode(ev.Code)
		if !ok {
			missing = append(missing, ev.Code)
			continue
		}
		typ := byte(xproto.KeyPress)
		if ev.Up {
			typ = xproto.KeyRelease
		}
		xtest.FakeInput(b.conn, typ, byte(kc), xproto.TimeCurrentTime, b.root, 0, 0, 0)
	}
	// A round trip flushes the requests and surfaces connection errors.
	if _, err := xproto.GetInputFocus(b.conn).Reply(); err != nil {
		return fmt.Errorf("x11: fake input: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrNoKeycode, missing)
	}
	return nil
}

// Poll reads the key bit vector and the Caps Lock LED.
func (b *Backend) Poll(codes []keys.Code) (platform.KeyState, error) {
	b.mu.Lock()
	km := b.keymap
	b.mu.Unlock()

	keymap, err := xproto.QueryKeymap(b.conn).Reply()
	if err != nil {
		return platform.KeyState{}, fmt.Errorf("x11: query keymap: %w", err)
	}
	st := platform.KeyState{Down: make(map[keys.Code]bool)}
	for _, c := range codes {
		for _, kc := range km.Keycodes(c) {
			if Held(keymap.Keys, kc) {
				st.Down[c] = true
				break
			}
		}
	}
	ctl, err := xproto.GetKeyboardControl(b.conn).Reply()
	if err != nil {
		return st, fmt.Errorf("x11: keyboard control: %w", err)
	}
	st.CapsLock = ctl.LedMask&capsLockLED != 0
	return st, nil
}

// Close drops the connection.
func (b *Backend) Close() error {
	b.conn.Close()
	return nil
}
