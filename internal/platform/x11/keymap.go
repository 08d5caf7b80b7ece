package x11

import (
	"github.com/BurntSushi/xgb/xproto"

	"osk/internal/keys"
)

// Keymap resolves key codes to X keycodes for one server mapping.
type Keymap struct {
	bySym map[xproto.Keysym][]xproto.Keycode
}

// NewKeymap indexes a GetKeyboardMapping reply. Only the unshifted and
// shifted columns of the first group are used.
func NewKeymap(min xproto.Keycode, perKeycode byte, syms []xproto.Keysym) *Keymap {
	km := &Keymap{bySym: make(map[xproto.Keysym][]xproto.Keycode)}
	if perKeycode == 0 {
		return km
	}
	cols := int(perKeycode)
	if cols > 2 {
		cols = 2
	}
	for i := 0; i*int(perKeycode) < len(syms); i++ {
		kc := xproto.Keycode(int(min) + i)
		row := syms[i*int(perKeycode):]
		for c := 0; c < cols && c < len(row); c++ {
			sym := row[c]
			if sym == 0 {
				continue
			}
			if c == 1 && sym >= 'A' && sym <= 'Z' {
				// Upper-case letters live on the shifted level of the
				// lower-case key.
				continue
			}
			km.add(sym, kc)
		}
	}
	return km
}

func (km *Keymap) add(sym xproto.Keysym, kc xproto.Keycode) {
	for _, have := range km.bySym[sym] {
		if have == kc {
			return
		}
	}
	km.bySym[sym] = append(km.bySym[sym], kc)
}

// Keycode returns the keycode that types code, preferring the first keysym.
func (km *Keymap) Keycode(code keys.Code) (xproto.Keycode, bool) {
	for _, sym := range Keysyms(code) {
		if kcs := km.bySym[sym]; len(kcs) > 0 {
			return kcs[0], true
		}
	}
	return 0, false
}

// Keycodes returns every keycode that produces code. Left and right
// modifiers both count as held.
func (km *Keymap) Keycodes(code keys.Code) []xproto.Keycode {
	var out []xproto.Keycode
	seen := make(map[xproto.Keycode]bool)
	for _, sym := range Keysyms(code) {
		for _, kc := range km.bySym[sym] {
			if !seen[kc] {
				seen[kc] = true
				out = append(out, kc)
			}
		}
	}
	return out
}

// Held reports whether kc is down in a QueryKeymap bit vector.
func Held(vector []byte, kc xproto.Keycode) bool {
	i := int(kc) / 8
	if i >= len(vector) {
		return false
	}
	return vector[i]&(1<<(uint(kc)%8)) != 0
}
