// Package display projects keyboard state into per-key labels and colors.
//
// Project is a pure function. It is called after every state change and never
// mutates anything.
package display

import (
	"osk/internal/keys"
	"osk/internal/mode"
	"osk/internal/modifier"
)

// Color is a semantic key color. The GUI maps it to a palette entry.
type Color int

const (
	// ColorNormal is the plain label color.
	ColorNormal Color = iota
	// ColorNative marks native-script labels.
	ColorNative
	// ColorActive marks an engaged modifier, lock or layer.
	ColorActive
	// ColorShifted marks upper-case, shifted and function-layer labels.
	ColorShifted
)

func (c Color) String() string {
	switch c {
	case ColorNative:
		return "native"
	case ColorActive:
		return "active"
	case ColorShifted:
		return "shifted"
	}
	return "normal"
}

// Key is the rendered state of one key.
type Key struct {
	Code    keys.Code
	Label   string
	Color   Color
	Pressed bool
	Width   float32
}

// Frame is a full projection of the keyboard.
type Frame struct {
	Indicator      string
	IndicatorColor Color
	Rows           [][]Key
}

// Key returns the projected key for code.
func (f Frame) Key(code keys.Code) (Key, bool) {
	for _, row := range f.Rows {
		for _, k := range row {
			if k.Code == code {
				return k, true
			}
		}
	}
	return Key{}, false
}

// Input is everything the projection reads.
type Input struct {
	Mods     modifier.Set
	Mode     mode.Snapshot
	CapsLock bool
	// Pressed holds keys physically down.
	Pressed map[keys.Code]bool
}

const (
	indicatorNative = "ㄅ"
	indicatorLatin  = "En"
	fnGlyph         = "⌨"
)

// Project renders cat under in.
func Project(cat *keys.Catalog, in Input) Frame {
	shift := in.Mods.Effective(modifier.Shift)
	upper := in.CapsLock != shift
	overlay := in.Mode.Overlay

	native := in.Mode.Mode == mode.NativeScript
	if in.Mode.Preview {
		native = !native
	}

	// The indicator names the script the Mode key switches to.
	f := Frame{Indicator: indicatorNative, IndicatorColor: ColorNormal}
	if native {
		f.Indicator, f.IndicatorColor = indicatorLatin, ColorNative
	}
	if overlay.Active {
		f.Indicator, f.IndicatorColor = indicatorLatin, ColorActive
	}

	rows := cat.Rows()
	f.Rows = make([][]Key, len(rows))
	for i, row := range rows {
		out := make([]Key, len(row))
		for j, vk := range row {
			k := Key{Code: vk.Code, Width: vk.Width, Pressed: in.Pressed[vk.Code]}
			k.Label, k.Color = label(vk, in, native, shift, upper, f)
			out[j] = k
		}
		f.Rows[i] = out
	}
	return f
}

func label(vk keys.VirtualKey, in Input, native, shift, upper bool, f Frame) (string, Color) {
	switch vk.Code {
	case keys.ModeSwitch:
		return f.Indicator, f.IndicatorColor
	case keys.FnLayer:
		return fnGlyph, activeColor(in.Mode.FunctionLayer)
	}

	if in.Mode.FunctionLayer && vk.HasFn && vk.FnLabel != "" {
		return vk.FnLabel, ColorShifted
	}

	text, color := glyph(vk, in.Mode.Overlay, native, shift, upper)

	// Lock and modifier keys are colored by their own state.
	if m, ok := modifier.FromCode(vk.Code); ok {
		color = activeColor(in.Mods.Effective(m))
	} else if vk.Code == keys.CapsLock {
		color = activeColor(in.CapsLock)
	}
	return text, color
}

func glyph(vk keys.VirtualKey, overlay mode.Overlay, native, shift, upper bool) (string, Color) {
	if native && !shift && !overlay.Active && vk.Native != "" {
		return vk.Native, ColorNative
	}
	if overlay.Active && vk.Code.IsLetter() {
		if overlay.FirstPending {
			return vk.Upper, ColorShifted
		}
		return vk.Lower, ColorNormal
	}

	up := shift
	if vk.Code.IsLetter() {
		up = upper
	}
	if up {
		return vk.Upper, ColorShifted
	}
	return vk.Lower, ColorNormal
}

func activeColor(on bool) Color {
	if on {
		return ColorActive
	}
	return ColorNormal
}
