package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/keys"
)

// mapping builds a 2-column mapping starting at keycode 8.
func mapping(rows ...[2]xproto.Keysym) []xproto.Keysym {
	var out []xproto.Keysym
	for _, r := range rows {
		out = append(out, r[0], r[1])
	}
	return out
}

func TestKeysyms(t *testing.T) {
	assert.Equal(t, []xproto.Keysym{'a'}, Keysyms(keys.A))
	assert.Equal(t, []xproto.Keysym{'z'}, Keysyms(keys.Z))
	assert.Equal(t, []xproto.Keysym{'7'}, Keysyms(keys.Digit0+7))
	assert.Equal(t, []xproto.Keysym{xkKP0 + 3}, Keysyms(keys.Numpad0+3))
	assert.Equal(t, []xproto.Keysym{xkF1 + 11}, Keysyms(keys.F12))
	assert.Equal(t, []xproto.Keysym{xkShiftL, xkShiftR}, Keysyms(keys.Shift))
	assert.Empty(t, Keysyms(keys.ModeSwitch))
	assert.Empty(t, Keysyms(keys.FnLayer))
}

func TestEveryCatalogKeyHasKeysym(t *testing.T) {
	for _, c := range keys.DefaultCatalog().Codes() {
		if c.Synthetic() {
			continue
		}
		assert.NotEmpty(t, Keysyms(c), "code %v", c)
	}
}

func TestKeymapResolves(t *testing.T) {
	// Keycodes 8 through 14.
	km := NewKeymap(8, 2, mapping(
		[2]xproto.Keysym{'a', 'A'},
		[2]xproto.Keysym{'1', '!'},
		[2]xproto.Keysym{xkShiftL, 0},
		[2]xproto.Keysym{xkShiftR, 0},
		[2]xproto.Keysym{'b', 'B'},
		[2]xproto.Keysym{xkSuperL, 0},
		[2]xproto.Keysym{xkAltL, xkMetaL},
	))

	kc, ok := km.Keycode(keys.A)
	require.True(t, ok)
	assert.Equal(t, xproto.Keycode(8), kc)

	kc, ok = km.Keycode(keys.Digit0 + 1)
	require.True(t, ok)
	assert.Equal(t, xproto.Keycode(9), kc)

	assert.Equal(t, []xproto.Keycode{10, 11}, km.Keycodes(keys.Shift))
	assert.Equal(t, []xproto.Keycode{14}, km.Keycodes(keys.Alt))

	_, ok = km.Keycode(keys.Z)
	assert.False(t, ok)
}

func TestKeymapIgnoresShiftedUppercase(t *testing.T) {
	// A server that lists 'A' on the shifted level of 'a' must not make 'A'
	// resolve anywhere else.
	km := NewKeymap(8, 4, []xproto.Keysym{'a', 'A', 0, 0})
	assert.Empty(t, km.bySym['A'])
}

func TestHeld(t *testing.T) {
	vec := make([]byte, 32)
	vec[1] = 1 << 2 // keycode 10
	assert.True(t, Held(vec, 10))
	assert.False(t, Held(vec, 11))
	assert.False(t, Held(vec[:1], 10))
}
