// Package journal keeps a small SQLite history of mode transitions and
// visibility decisions for diagnostics. Key codes and text never reach it.
package journal

import (
	"time"

	"osk/internal/focusgate"
	"osk/internal/mode"
)

// Kind distinguishes journal entries.
type Kind string

const (
	KindMode       Kind = "mode"
	KindVisibility Kind = "visibility"
)

// Entry is one journal row.
type Entry struct {
	ID   int64
	At   time.Time
	Kind Kind

	// Source is the mode transition source (user, local, external) or the
	// visibility trigger (focus, caret, ipc).
	Source string

	// From and To are script modes for KindMode.
	From string
	To   string

	// Action is "show" or "hide" for KindVisibility.
	Action string
	Reason string
	Role   string
	Class  string
}

// ModeEntry builds an entry for a mode transition.
func ModeEntry(t mode.Transition) Entry {
	return Entry{
		At:     t.At,
		Kind:   KindMode,
		Source: string(t.Source),
		From:   t.From.String(),
		To:     t.To.String(),
	}
}

// VisibilityEntry builds an entry for a focus gate decision. Decisions
// without an action are not journaled by callers.
func VisibilityEntry(d focusgate.Decision, at time.Time) Entry {
	return Entry{
		At:     at,
		Kind:   KindVisibility,
		Source: d.Source.String(),
		Action: d.Action.String(),
		Reason: d.Verdict.Reason,
		Role:   d.Element.Role.String(),
		Class:  d.Element.ClassName,
	}
}
