// Package keys holds the immutable key catalog of the on-screen keyboard.
//
// Codes use the Windows virtual-key space on every platform; backends translate
// them to keysyms or evdev codes at the boundary.
package keys

import "fmt"

// Code is a virtual-key code.
type Code uint8

// Virtual-key codes used by the layout.
const (
	Back      Code = 0x08
	Tab       Code = 0x09
	Enter     Code = 0x0D
	Shift     Code = 0x10
	Control   Code = 0x11
	Alt       Code = 0x12
	CapsLock  Code = 0x14
	Escape    Code = 0x1B
	Space     Code = 0x20
	PageUp    Code = 0x21
	PageDown  Code = 0x22
	End       Code = 0x23
	Home      Code = 0x24
	Left      Code = 0x25
	Up        Code = 0x26
	Right     Code = 0x27
	Down      Code = 0x28
	Insert    Code = 0x2D
	Delete    Code = 0x2E
	Digit0    Code = 0x30
	Digit9    Code = 0x39
	A         Code = 0x41
	Z         Code = 0x5A
	Meta      Code = 0x5B
	Numpad0   Code = 0x60
	Numpad9   Code = 0x69
	F1        Code = 0x70
	F12       Code = 0x7B
	Semicolon Code = 0xBA
	Equal     Code = 0xBB
	Comma     Code = 0xBC
	Minus     Code = 0xBD
	Period    Code = 0xBE
	Slash     Code = 0xBF
	Grave     Code = 0xC0
	LBracket  Code = 0xDB
	Backslash Code = 0xDC
	RBracket  Code = 0xDD
	Quote     Code = 0xDE

	// FnLayer toggles the function layer. Never sent to the OS.
	FnLayer Code = 0xFE
	// ModeSwitch toggles the script mode. Never sent to the OS.
	ModeSwitch Code = 0xFF
)

// IsLetter reports whether c is one of A-Z.
func (c Code) IsLetter() bool {
	return c >= A && c <= Z
}

// IsTopRowDigit reports whether c is one of the 0-9 keys above the letters.
func (c Code) IsTopRowDigit() bool {
	return c >= Digit0 && c <= Digit9
}

// Numpad returns the numeric-pad key for a top-row digit.
func (c Code) Numpad() (Code, bool) {
	if !c.IsTopRowDigit() {
		return c, false
	}
	return Numpad0 + (c - Digit0), true
}

// IsExtended reports whether the key needs the extended flag when synthesized
// on Windows (navigation cluster and arrows).
func (c Code) IsExtended() bool {
	switch c {
	case Delete, Insert, Home, End, PageUp, PageDown, Left, Up, Right, Down:
		return true
	}
	return false
}

// Synthetic reports whether c exists only inside the keyboard.
func (c Code) Synthetic() bool {
	return c == FnLayer || c == ModeSwitch
}

var names = map[Code]string{
	Back: "Back", Tab: "Tab", Enter: "Enter", Shift: "Shift", Control: "Ctrl",
	Alt: "Alt", CapsLock: "CapsLock", Escape: "Esc", Space: "Space",
	PageUp: "PageUp", PageDown: "PageDown", End: "End", Home: "Home",
	Left: "Left", Up: "Up", Right: "Right", Down: "Down", Insert: "Insert",
	Delete: "Delete", Meta: "Meta", Semicolon: ";", Equal: "=", Comma: ",",
	Minus: "-", Period: ".", Slash: "/", Grave: "`", LBracket: "[",
	Backslash: "\\", RBracket: "]", Quote: "'", FnLayer: "Fn", ModeSwitch: "Mode",
}

func (c Code) String() string {
	switch {
	case c.IsLetter():
		return string(rune('A' + (c - A)))
	case c.IsTopRowDigit():
		return string(rune('0' + (c - Digit0)))
	case c >= Numpad0 && c <= Numpad9:
		return fmt.Sprintf("Num%d", c-Numpad0)
	case c >= F1 && c <= F12:
		return fmt.Sprintf("F%d", c-F1+1)
	}
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("0x%02X", uint8(c))
}
