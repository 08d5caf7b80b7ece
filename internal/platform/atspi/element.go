// Package atspi tracks accessibility focus on Linux desktops through the
// AT-SPI2 D-Bus protocol.
package atspi

import (
	"strings"

	"osk/internal/platform"
)

// Role values from AtspiRole.
const (
	roleComboBox     uint32 = 11
	roleDesktopFrame uint32 = 14
	rolePasswordText uint32 = 40
	roleSpinButton   uint32 = 52
	roleTerminal     uint32 = 60
	roleText         uint32 = 61
	roleParagraph    uint32 = 73
	roleAutocomplete uint32 = 76
	roleEditbar      uint32 = 77
	roleEntry        uint32 = 79
	roleDocFrame     uint32 = 82
	roleDocSheet     uint32 = 92
	roleDocSlides    uint32 = 93
	roleDocText      uint32 = 94
	roleDocWeb       uint32 = 95
	roleDocEmail     uint32 = 96
)

// State bits from AtspiStateType.
const (
	stateEditable  = 7
	stateEnabled   = 8
	stateFocusable = 11
	stateFocused   = 12
	stateSensitive = 24
	stateShowing   = 25
	stateVisible   = 30
	stateReadOnly  = 43
)

const (
	ifaceEditableText = "org.a11y.atspi.EditableText"
	ifaceText         = "org.a11y.atspi.Text"
	ifaceValue        = "org.a11y.atspi.Value"
)

// States is the two-word state set returned by Accessible.GetState.
type States []uint32

// Has reports whether state bit s is set.
func (st States) Has(s int) bool {
	w := s / 32
	if w >= len(st) {
		return false
	}
	return st[w]&(1<<(uint(s)%32)) != 0
}

// StatesOf builds a state set with the given bits set.
func StatesOf(bits ...int) States {
	st := make(States, 2)
	for _, b := range bits {
		st[b/32] |= 1 << (uint(b) % 32)
	}
	return st
}

// Info is what a focus handler reads from one accessible object.
type Info struct {
	Role       uint32
	States     States
	Interfaces []string
	Name       string
	App        string
	PID        int
}

func (in Info) implements(iface string) bool {
	for _, i := range in.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

func textRole(r uint32) bool {
	switch r {
	case roleEntry, roleText, rolePasswordText, roleTerminal, roleSpinButton,
		roleParagraph, roleEditbar, roleAutocomplete:
		return true
	}
	return false
}

func documentRole(r uint32) bool {
	switch r {
	case roleDocFrame, roleDocSheet, roleDocSlides, roleDocText, roleDocWeb, roleDocEmail:
		return true
	}
	return false
}

// ElementFromInfo maps an accessible object onto the platform element model.
//
// Unlike UI Automation, AT-SPI marks editability with a state, so a text
// role without the editable state is reported as a read-only value rather
// than an edit.
func ElementFromInfo(in Info) platform.Element {
	editable := in.States.Has(stateEditable) && !in.States.Has(stateReadOnly)
	el := platform.Element{
		Role:              platform.RoleOther,
		ClassName:         in.App,
		Name:              in.Name,
		PID:               in.PID,
		Enabled:           in.States.Has(stateEnabled) || in.States.Has(stateSensitive),
		Offscreen:         !in.States.Has(stateShowing) && !in.States.Has(stateVisible),
		KeyboardFocusable: in.States.Has(stateFocusable) || in.States.Has(stateFocused),
		HasText:           in.implements(ifaceText),
		HasValue:          in.implements(ifaceEditableText) || in.implements(ifaceValue),
		Password:          in.Role == rolePasswordText,
	}

	switch {
	case in.Role == roleDesktopFrame:
		el.Role = platform.RoleShell
	case in.Role == roleComboBox:
		if editable || in.implements(ifaceEditableText) {
			el.Role = platform.RoleComboBox
		} else {
			el.ReadOnly, el.ReadOnlyKnown = true, true
		}
	case textRole(in.Role):
		if editable {
			el.Role = platform.RoleEdit
		} else {
			el.HasValue = true
			el.ReadOnly, el.ReadOnlyKnown = true, true
		}
	case documentRole(in.Role):
		el.Role = platform.RoleDocument
		el.ReadOnly, el.ReadOnlyKnown = !editable, true
	default:
		el.ReadOnly = !editable
		el.ReadOnlyKnown = true
	}
	return el
}

// trimName normalises an application name for ClassName matching.
func trimName(s string) string {
	return strings.TrimSpace(s)
}
