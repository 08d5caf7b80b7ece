package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"

	"osk/internal/display"
)

// Palette defines the keyboard colors.
type Palette struct {
	Background color.NRGBA
	Key        color.NRGBA
	KeyPressed color.NRGBA
	Border     color.NRGBA
	Scrim      color.NRGBA
	Surface    color.NRGBA

	Text    color.NRGBA
	Native  color.NRGBA
	Active  color.NRGBA
	Shifted color.NRGBA
}

// Config defines the keyboard metrics.
type Config struct {
	CornerRadius unit.Dp
	KeyGap       unit.Dp
	Padding      unit.Dp
	FontKey      unit.Sp
	FontMenu     unit.Sp
}

// Theme wraps the material theme with keyboard styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a theme for the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{
		Theme: mtheme,
	}

	if runtime.GOOS == "windows" {
		setupWindowsTheme(t)
	} else {
		setupDefaultTheme(t)
	}

	return t
}

// LabelColor maps a semantic key color to the palette.
func (t *Theme) LabelColor(c display.Color) color.NRGBA {
	switch c {
	case display.ColorNative:
		return t.Palette.Native
	case display.ColorActive:
		return t.Palette.Active
	case display.ColorShifted:
		return t.Palette.Shifted
	default:
		return t.Palette.Text
	}
}

// KeyFill returns the key face color.
func (t *Theme) KeyFill(pressed bool) color.NRGBA {
	if pressed {
		return t.Palette.KeyPressed
	}
	return t.Palette.Key
}

func setupWindowsTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		Key:        color.NRGBA{R: 0x32, G: 0x32, B: 0x32, A: 0xFF},
		KeyPressed: color.NRGBA{R: 0x00, G: 0x5A, B: 0x9E, A: 0xFF},
		Border:     color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF},
		Scrim:      color.NRGBA{A: 0xC0},
		Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
		Text:       color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Native:     color.NRGBA{R: 0x6B, G: 0xBC, B: 0x0F, A: 0xFF},
		Active:     color.NRGBA{R: 0xFF, G: 0xB9, B: 0x00, A: 0xFF},
		Shifted:    color.NRGBA{R: 0x4C, G: 0xC2, B: 0xFF, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(4),
		KeyGap:       unit.Dp(4),
		Padding:      unit.Dp(6),
		FontKey:      unit.Sp(18),
		FontMenu:     unit.Sp(16),
	}
}

func setupDefaultTheme(t *Theme) {
	setupWindowsTheme(t)
	t.Config.CornerRadius = unit.Dp(6)
}
