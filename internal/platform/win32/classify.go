// Package win32 implements the platform interfaces with the Win32 API.
//
// Focus is read through UI Automation (uia.go maps its elements). classify.go
// is the fallback used when UI Automation cannot be started. Both mappings
// build on every OS and are tested everywhere; the rest needs Windows.
package win32

import (
	"strings"

	"osk/internal/platform"
)

// Window styles read from GWL_STYLE.
const (
	esPassword = 0x0020
	esReadOnly = 0x0800
	wsTabStop  = 0x00010000
	wsDisabled = 0x08000000
	wsVisible  = 0x10000000
)

// WindowInfo is what can be learned about the focused HWND without UI
// Automation. Browser and document windows cannot say what inside them has
// focus, so this mapping is only a fallback.
type WindowInfo struct {
	Class   string
	Title   string
	PID     int
	Style   uint32
	Iconic  bool
	Focused bool
}

type classRole struct {
	prefix string
	role   platform.Role
}

// Class prefixes are matched case-insensitively, longest first.
var classRoles = []classRole{
	{"chrome_renderwidgethosthwnd", platform.RoleDocument},
	{"internet explorer_server", platform.RoleDocument},
	{"cascadia_hosting_window_class", platform.RoleEdit},
	{"mozillawindowclass", platform.RoleDocument},
	{"consolewindowclass", platform.RoleEdit},
	{"shell_secondarytraywnd", platform.RoleShell},
	{"windows.ui.core.corewindow", platform.RoleOther},
	{"shell_traywnd", platform.RoleShell},
	{"traynotifywnd", platform.RoleShell},
	{"comboboxex32", platform.RoleComboBox},
	{"scintilla", platform.RoleEdit},
	{"richedit", platform.RoleEdit},
	{"combobox", platform.RoleComboBox},
	{"progman", platform.RoleShell},
	{"workerw", platform.RoleShell},
	{"textbox", platform.RoleEdit},
	{"_wwg", platform.RoleDocument},
	{"edit", platform.RoleEdit},
}

// RoleOf maps a window class name to a role.
func RoleOf(class string) platform.Role {
	lc := strings.ToLower(class)
	for _, cr := range classRoles {
		if strings.HasPrefix(lc, cr.prefix) {
			return cr.role
		}
	}
	return platform.RoleOther
}

// ElementFromWindow builds the element the focus gate classifies. Style bits
// are only meaningful for the standard edit controls.
func ElementFromWindow(w WindowInfo) platform.Element {
	role := RoleOf(w.Class)
	el := platform.Element{
		Role:              role,
		ClassName:         w.Class,
		Name:              w.Title,
		PID:               w.PID,
		Enabled:           w.Style&wsDisabled == 0,
		Offscreen:         w.Iconic || w.Style&wsVisible == 0,
		KeyboardFocusable: w.Focused || w.Style&wsTabStop != 0,
	}

	lc := strings.ToLower(w.Class)
	standardEdit := lc == "edit" || strings.HasPrefix(lc, "richedit")
	if standardEdit {
		el.Password = lc == "edit" && w.Style&esPassword != 0
		el.ReadOnly = w.Style&esReadOnly != 0
		el.ReadOnlyKnown = true
	}

	switch role {
	case platform.RoleEdit, platform.RoleComboBox:
		el.HasValue = true
		el.HasText = true
	case platform.RoleDocument:
		el.HasText = true
	}
	return el
}
