// Package platform defines the boundary between the keyboard core and the
// operating system.
//
// The core only ever talks to these interfaces. Backends for Windows, X11,
// uinput, AT-SPI and the Linux input-method buses live in subpackages and are
// assembled by internal/backend.
package platform

import (
	"context"
	"errors"

	"osk/internal/keys"
)

var (
	// ErrUnavailable means the OS could not answer the query this time, for
	// example because no input method is attached to the focused control.
	// Callers treat it as "no information".
	ErrUnavailable = errors.New("platform: unavailable")

	// ErrElementGone means the focused element disappeared while it was being
	// inspected.
	ErrElementGone = errors.New("platform: element gone")

	// ErrNotSupported is returned by backends that are not built for this OS.
	ErrNotSupported = errors.New("platform: not supported on this platform")
)

// KeyEvent is one synthetic key transition.
type KeyEvent struct {
	Code keys.Code
	Up   bool
}

// Down returns a key-down event for code.
func Down(code keys.Code) KeyEvent { return KeyEvent{Code: code} }

// Up returns a key-up event for code.
func Up(code keys.Code) KeyEvent { return KeyEvent{Code: code, Up: true} }

// KeySink delivers synthetic key events to the OS in the order given.
type KeySink interface {
	Send(events []KeyEvent) error
}

// KeyState is a snapshot of physical keyboard state.
type KeyState struct {
	Down     map[keys.Code]bool
	CapsLock bool
}

// Held reports whether code was physically down.
func (s KeyState) Held(code keys.Code) bool {
	return s.Down[code]
}

// PhysicalKeys reports which of the given keys the user is physically holding.
type PhysicalKeys interface {
	Poll(codes []keys.Code) (KeyState, error)
}

// IMEQuery reads the conversion state of the input method attached to the
// focused control. It returns ErrUnavailable when there is none.
type IMEQuery interface {
	ConversionState() (native bool, err error)
}

// Caret describes the system caret.
type Caret struct {
	Present  bool
	OwnerPID int
}

// CaretQuery reports whether a text caret exists anywhere in the system.
type CaretQuery interface {
	CaretPresence() (Caret, error)
}

// FocusChange is one focus notification. Err is ErrElementGone when the element
// vanished before it could be inspected.
type FocusChange struct {
	Element Element
	Err     error
}

// FocusSource pushes accessibility focus changes.
type FocusSource interface {
	// Start begins delivering notifications until ctx is done or Close is called.
	Start(ctx context.Context) error

	// Changes returns the notification channel. It is closed after Close.
	Changes() <-chan FocusChange

	Close() error
}

// Visibility is the show/hide collaborator. Both calls are idempotent.
type Visibility interface {
	Show()
	Hide()
}
