// Package x11 injects keys through the XTEST extension and reads the physical
// keyboard with core X requests.
package x11

import (
	"github.com/BurntSushi/xgb/xproto"

	"osk/internal/keys"
)

// Keysyms from X11/keysymdef.h.
const (
	xkBackSpace = 0xff08
	xkTab       = 0xff09
	xkReturn    = 0xff0d
	xkEscape    = 0xff1b
	xkHome      = 0xff50
	xkLeft      = 0xff51
	xkUp        = 0xff52
	xkRight     = 0xff53
	xkDown      = 0xff54
	xkPageUp    = 0xff55
	xkPageDown  = 0xff56
	xkEnd       = 0xff57
	xkInsert    = 0xff63
	xkKP0       = 0xffb0
	xkF1        = 0xffbe
	xkShiftL    = 0xffe1
	xkShiftR    = 0xffe2
	xkControlL  = 0xffe3
	xkControlR  = 0xffe4
	xkCapsLock  = 0xffe5
	xkMetaL     = 0xffe7
	xkMetaR     = 0xffe8
	xkAltL      = 0xffe9
	xkAltR      = 0xffea
	xkSuperL    = 0xffeb
	xkSuperR    = 0xffec
	xkDelete    = 0xffff
)

var fixedKeysyms = map[keys.Code][]xproto.Keysym{
	keys.Back:      {xkBackSpace},
	keys.Tab:       {xkTab},
	keys.Enter:     {xkReturn},
	keys.Shift:     {xkShiftL, xkShiftR},
	keys.Control:   {xkControlL, xkControlR},
	keys.Alt:       {xkAltL, xkAltR, xkMetaL, xkMetaR},
	keys.CapsLock:  {xkCapsLock},
	keys.Escape:    {xkEscape},
	keys.Space:     {' '},
	keys.PageUp:    {xkPageUp},
	keys.PageDown:  {xkPageDown},
	keys.End:       {xkEnd},
	keys.Home:      {xkHome},
	keys.Left:      {xkLeft},
	keys.Up:        {xkUp},
	keys.Right:     {xkRight},
	keys.Down:      {xkDown},
	keys.Insert:    {xkInsert},
	keys.Delete:    {xkDelete},
	keys.Meta:      {xkSuperL, xkSuperR},
	keys.Semicolon: {';'},
	keys.Equal:     {'='},
	keys.Comma:     {','},
	keys.Minus:     {'-'},
	keys.Period:    {'.'},
	keys.Slash:     {'/'},
	keys.Grave:     {'`'},
	keys.LBracket:  {'['},
	keys.Backslash: {'\\'},
	keys.RBracket:  {']'},
	keys.Quote:     {'\''},
}

// Keysyms returns the keysyms that can produce code, preferred first. Codes
// that exist only inside the keyboard have none.
func Keysyms(code keys.Code) []xproto.Keysym {
	switch {
	case code.IsLetter():
		return []xproto.Keysym{xproto.Keysym('a' + (code - keys.A))}
	case code.IsTopRowDigit():
		return []xproto.Keysym{xproto.Keysym('0' + (code - keys.Digit0))}
	case code >= keys.Numpad0 && code <= keys.Numpad9:
		return []xproto.Keysym{xproto.Keysym(xkKP0 + int(code-keys.Numpad0))}
	case code >= keys.F1 && code <= keys.F12:
		return []xproto.Keysym{xproto.Keysym(xkF1 + int(code-keys.F1))}
	}
	return fixedKeysyms[code]
}
