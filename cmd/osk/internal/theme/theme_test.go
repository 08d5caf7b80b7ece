package theme

import (
	"testing"

	"gioui.org/widget/material"
	"github.com/stretchr/testify/assert"

	"osk/internal/display"
)

func TestLabelColor(t *testing.T) {
	th := NewTheme(material.NewTheme())
	assert.Equal(t, th.Palette.Text, th.LabelColor(display.ColorNormal))
	assert.Equal(t, th.Palette.Native, th.LabelColor(display.ColorNative))
	assert.Equal(t, th.Palette.Active, th.LabelColor(display.ColorActive))
	assert.Equal(t, th.Palette.Shifted, th.LabelColor(display.ColorShifted))
	assert.Equal(t, th.Palette.Text, th.LabelColor(display.Color(99)))
}

func TestSemanticColorsDistinct(t *testing.T) {
	th := NewTheme(material.NewTheme())
	seen := map[interface{}]bool{}
	for _, c := range []display.Color{display.ColorNormal, display.ColorNative, display.ColorActive, display.ColorShifted} {
		col := th.LabelColor(c)
		assert.False(t, seen[col], "color %v reused", c)
		seen[col] = true
	}
	assert.NotEqual(t, th.KeyFill(false), th.KeyFill(true))
}
