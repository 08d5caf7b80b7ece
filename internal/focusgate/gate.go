// Package focusgate decides from focus notifications and caret polls whether
// the keyboard should be visible.
//
// The Gate is not safe for concurrent use. Both input channels must be driven
// from the same loop because they read and write the same active flag.
package focusgate

import (
	"errors"
	"log/slog"

	"osk/internal/platform"
)

// Source is the channel that last changed the gate.
type Source int

const (
	SourceNone Source = iota
	SourceCaret
	SourceFocus
)

func (s Source) String() string {
	switch s {
	case SourceCaret:
		return "caret"
	case SourceFocus:
		return "focus"
	}
	return "none"
}

// Action is what the gate asked the visibility collaborator to do.
type Action int

const (
	NoAction Action = iota
	Show
	Hide
)

func (a Action) String() string {
	switch a {
	case Show:
		return "show"
	case Hide:
		return "hide"
	}
	return "none"
}

// State is the gate's visibility state.
type State struct {
	LastSource Source
	Active     bool
}

// Decision describes one gate step.
type Decision struct {
	Action  Action
	Source  Source
	Verdict Verdict
	Element platform.Element
}

// Gate is the visibility state machine.
type Gate struct {
	state   State
	rules   Rules
	selfPID int
	vis     platform.Visibility
	log     *slog.Logger
}

// New returns a gate that drives vis. Events owned by selfPID are ignored.
func New(vis platform.Visibility, rules Rules, selfPID int, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{
		rules:   rules,
		selfPID: selfPID,
		vis:     vis,
		log:     log.With("component", "focusgate"),
	}
}

// SetRules replaces the heuristics.
func (g *Gate) SetRules(r Rules) {
	g.rules = r
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// OnFocus handles one focus notification.
func (g *Gate) OnFocus(fc platform.FocusChange) Decision {
	if fc.Err != nil {
		if errors.Is(fc.Err, platform.ErrElementGone) {
			return g.apply(SourceFocus, Verdict{Reason: "gone"}, fc.Element)
		}
		g.log.Debug("focus query failed", "error", fc.Err)
		return Decision{Source: SourceFocus}
	}
	if g.isSelf(fc.Element.PID) {
		return Decision{Source: SourceFocus}
	}

	v := Classify(fc.Element, g.rules)
	g.log.Debug("focus classified",
		"role", fc.Element.Role,
		"class", fc.Element.ClassName,
		"active", v.Active,
		"reason", v.Reason,
	)
	return g.apply(SourceFocus, v, fc.Element)
}

// OnCaret handles one caret poll. A present caret forces the gate active; an
// absent caret hides the keyboard only when focus also says inactive.
func (g *Gate) OnCaret(c platform.Caret, err error) Decision {
	if err != nil {
		g.log.Debug("caret query failed", "error", err)
		return Decision{Source: SourceCaret}
	}
	if !c.Present {
		if g.state.Active {
			return Decision{Source: SourceCaret}
		}
		g.vis.Hide()
		return Decision{Action: Hide, Source: SourceCaret, Verdict: Verdict{Reason: "no-caret"}}
	}
	if g.isSelf(c.OwnerPID) {
		return Decision{Source: SourceCaret}
	}
	return g.apply(SourceCaret, Verdict{Active: true, Reason: "caret"}, platform.Element{PID: c.OwnerPID})
}

func (g *Gate) apply(src Source, v Verdict, el platform.Element) Decision {
	g.state = State{LastSource: src, Active: v.Active}
	d := Decision{Source: src, Verdict: v, Element: el}
	if v.Active {
		g.vis.Show()
		d.Action = Show
	} else {
		g.vis.Hide()
		d.Action = Hide
	}
	return d
}

func (g *Gate) isSelf(pid int) bool {
	return g.selfPID != 0 && pid == g.selfPID
}
