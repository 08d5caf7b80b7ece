// Package modifier tracks the physical and virtual (sticky) state of the
// Shift, Ctrl, Alt and Meta modifiers.
//
// Shift, Ctrl and Meta are one-shot: a sticky flag applies to the next key
// sent and is then cleared. Alt is a lock: turning it on sends Alt-down at
// once and the key stays down until it is toggled off or Release is called.
package modifier

import (
	"fmt"

	"osk/internal/keys"
	"osk/internal/platform"
)

// Modifier identifies one of the four modifiers.
type Modifier int

const (
	Shift Modifier = iota
	Ctrl
	Alt
	Meta
	count
)

// All lists every modifier.
var All = [...]Modifier{Shift, Ctrl, Alt, Meta}

// BatchOrder is the order in which virtual modifiers are pressed around a key.
// They are released in reverse. Alt is absent because it is a lock.
var BatchOrder = [...]Modifier{Ctrl, Meta, Shift}

var codes = [count]keys.Code{keys.Shift, keys.Control, keys.Alt, keys.Meta}

// Code returns the virtual-key code of m.
func (m Modifier) Code() keys.Code {
	return codes[m]
}

// IsLock reports whether m has lock semantics.
func (m Modifier) IsLock() bool {
	return m == Alt
}

func (m Modifier) String() string {
	switch m {
	case Shift:
		return "shift"
	case Ctrl:
		return "ctrl"
	case Alt:
		return "alt"
	case Meta:
		return "meta"
	}
	return fmt.Sprintf("modifier(%d)", int(m))
}

// FromCode maps a key code to its modifier.
func FromCode(c keys.Code) (Modifier, bool) {
	for m, code := range codes {
		if code == c {
			return Modifier(m), true
		}
	}
	return 0, false
}

// Set is a read-only snapshot of all modifiers.
type Set struct {
	Held   [count]bool
	Sticky [count]bool
}

// Effective reports held || sticky for m.
func (s Set) Effective(m Modifier) bool {
	return s.Held[m] || s.Sticky[m]
}

// State is the live modifier state. It is owned by the engine loop and is not
// safe for concurrent use.
type State struct {
	set  Set
	sink platform.KeySink

	// altDown is set while an injected Alt-down has not been matched by an up.
	altDown bool
}

// New returns a State that emits lock transitions to sink.
func New(sink platform.KeySink) *State {
	return &State{sink: sink}
}

// ToggleSticky flips the virtual flag of m. For Alt it immediately emits the
// matching down or up event. The flag flips even if the emit fails.
func (s *State) ToggleSticky(m Modifier) error {
	s.set.Sticky[m] = !s.set.Sticky[m]
	if !m.IsLock() {
		return nil
	}
	if s.set.Sticky[m] {
		s.altDown = true
		return s.emit(platform.Down(m.Code()))
	}
	return s.releaseLock()
}

// ObservePhysical records whether the user is physically holding m.
func (s *State) ObservePhysical(m Modifier, held bool) {
	s.set.Held[m] = held
}

// Effective reports whether m is physically held or virtually sticky.
func (s *State) Effective(m Modifier) bool {
	return s.set.Effective(m)
}

// Sticky reports the virtual flag of m.
func (s *State) Sticky(m Modifier) bool {
	return s.set.Sticky[m]
}

// Held reports the physical flag of m.
func (s *State) Held(m Modifier) bool {
	return s.set.Held[m]
}

// SetSticky sets a one-shot flag without emitting anything. It is a no-op for
// lock modifiers, which must go through ToggleSticky.
func (s *State) SetSticky(m Modifier, on bool) {
	if m.IsLock() {
		return
	}
	s.set.Sticky[m] = on
}

// ClearOneShot clears every non-lock sticky flag.
func (s *State) ClearOneShot() {
	for _, m := range All {
		if !m.IsLock() {
			s.set.Sticky[m] = false
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Set {
	return s.set
}

// Release lifts a held Alt lock. It emits Alt-up at most once and is safe to
// call repeatedly.
func (s *State) Release() error {
	s.set.Sticky[Alt] = false
	return s.releaseLock()
}

func (s *State) releaseLock() error {
	if !s.altDown {
		return nil
	}
	s.altDown = false
	return s.emit(platform.Up(Alt.Code()))
}

func (s *State) emit(ev platform.KeyEvent) error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.Send([]platform.KeyEvent{ev}); err != nil {
		return fmt.Errorf("modifier: send %s: %w", ev.Code, err)
	}
	return nil
}
