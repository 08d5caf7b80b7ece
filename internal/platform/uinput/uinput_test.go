package uinput

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osk/internal/keys"
)

func TestEvdevCode(t *testing.T) {
	tests := []struct {
		code keys.Code
		want int
	}{
		{keys.A, 30},
		{keys.A + 16, 16},
		{keys.Z, 44},
		{keys.A + 12, 50},
		{keys.Digit0 + 1, 2},
		{keys.Digit0, 11},
		{keys.Numpad0, 82},
		{keys.Numpad0 + 7, 71},
		{keys.F1, 59},
		{keys.F12, 88},
		{keys.Shift, 42},
		{keys.Meta, 125},
		{keys.Delete, 111},
	}
	for _, tt := range tests {
		got, ok := EvdevCode(tt.code)
		assert.True(t, ok, "code %v", tt.code)
		assert.Equal(t, tt.want, got, "code %v", tt.code)
	}

	_, ok := EvdevCode(keys.ModeSwitch)
	assert.False(t, ok)
}

func TestCatalogAndRemapTargetsMapped(t *testing.T) {
	cat := keys.DefaultCatalog()
	for _, c := range cat.Codes() {
		if c.Synthetic() {
			continue
		}
		_, ok := EvdevCode(c)
		assert.True(t, ok, "code %v", c)
		if target, remapped := cat.FunctionTarget(c); remapped {
			_, ok := EvdevCode(target)
			assert.True(t, ok, "fn target %v", target)
		}
	}
}

func TestEvdevCodesUnique(t *testing.T) {
	seen := make(map[int]keys.Code)
	for c, code := range evdev {
		if other, dup := seen[code]; dup {
			t.Errorf("evdev %d used by %v and %v", code, other, c)
		}
		seen[code] = c
	}
}
