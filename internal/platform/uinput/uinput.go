// Package uinput injects keys through a Linux uinput virtual keyboard. It
// works under Wayland compositors where XTEST is unavailable, but it cannot
// observe the physical keyboard.
package uinput

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	uinputdev "github.com/bendahl/uinput"

	"osk/internal/keys"
	"osk/internal/platform"
)

// DefaultPath is the uinput control device.
const DefaultPath = "/dev/uinput"

const deviceName = "osk virtual keyboard"

// ErrNoEvdevCode is returned for keys without an evdev equivalent.
var ErrNoEvdevCode = errors.New("uinput: no evdev code for key")

// Sink is a KeySink backed by a uinput keyboard device.
type Sink struct {
	mu  sync.Mutex
	kb  uinputdev.Keyboard
	log *slog.Logger
}

// Open creates the virtual keyboard at path.
func Open(path string, log *slog.Logger) (*Sink, error) {
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = slog.Default()
	}
	kb, err := uinputdev.CreateKeyboard(path, []byte(deviceName))
	if err != nil {
		return nil, fmt.Errorf("uinput: create keyboard: %w", err)
	}
	return &Sink{kb: kb, log: log.With("component", "uinput")}, nil
}

// Send writes the events in order. A failure stops the batch.
func (s *Sink) Send(events []platform.KeyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		code, ok := EvdevCode(ev.Code)
		if !ok {
			return fmt.Errorf("%w: %v", ErrNoEvdevCode, ev.Code)
		}
		var err error
		if ev.Up {
			err = s.kb.KeyUp(code)
		} else {
			err = s.kb.KeyDown(code)
		}
		if err != nil {
			return fmt.Errorf("uinput: %v %s: %w", ev.Code, direction(ev.Up), err)
		}
	}
	return nil
}

func direction(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// Close destroys the device.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kb.Close()
}

// Codes from linux/input-event-codes.h.
var evdev = map[keys.Code]int{
	keys.Escape: 1, keys.Minus: 12, keys.Equal: 13, keys.Back: 14, keys.Tab: 15,
	keys.LBracket: 26, keys.RBracket: 27, keys.Enter: 28, keys.Control: 29,
	keys.Semicolon: 39, keys.Quote: 40, keys.Grave: 41, keys.Shift: 42,
	keys.Backslash: 43, keys.Comma: 51, keys.Period: 52, keys.Slash: 53,
	keys.Alt: 56, keys.Space: 57, keys.CapsLock: 58,
	keys.Home: 102, keys.Up: 103, keys.PageUp: 104, keys.Left: 105,
	keys.Right: 106, keys.End: 107, keys.Down: 108, keys.PageDown: 109,
	keys.Insert: 110, keys.Delete: 111, keys.Meta: 125,
}

// Letters in QWERTY order with their evdev codes.
var letterRows = []struct {
	letters string
	first   int
}{
	{"QWERTYUIOP", 16},
	{"ASDFGHJKL", 30},
	{"ZXCVBNM", 44},
}

var keypad = [10]int{82, 79, 80, 81, 75, 76, 77, 71, 72, 73}

func init() {
	for _, row := range letterRows {
		for i, ch := range row.letters {
			evdev[keys.A+keys.Code(ch-'A')] = row.first + i
		}
	}
	// 1..9 are 2..10 and 0 is 11.
	for d := 1; d <= 9; d++ {
		evdev[keys.Digit0+keys.Code(d)] = d + 1
	}
	evdev[keys.Digit0] = 11
	for d := 0; d <= 9; d++ {
		evdev[keys.Numpad0+keys.Code(d)] = keypad[d]
	}
	for f := 0; f < 10; f++ {
		evdev[keys.F1+keys.Code(f)] = 59 + f
	}
	evdev[keys.F1+10] = 87
	evdev[keys.F1+11] = 88
}

// EvdevCode maps a virtual-key code to its evdev key code.
func EvdevCode(c keys.Code) (int, bool) {
	code, ok := evdev[c]
	return code, ok
}
