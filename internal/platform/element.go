package platform

// Role is the coarse accessibility role of a focused element.
type Role int

const (
	RoleUnknown Role = iota
	// RoleEdit is a single or multi-line text field.
	RoleEdit
	RoleComboBox
	// RoleDocument is a rich document surface such as a browser page or a
	// word processor canvas.
	RoleDocument
	// RoleShell is a taskbar, start menu, tray or launcher container.
	RoleShell
	RoleOther
)

var roleNames = [...]string{"unknown", "edit", "combobox", "document", "shell", "other"}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return "unknown"
	}
	return roleNames[r]
}

// Element is the capability set of a focused accessibility element. Backends
// fill in what they can; the Known flags say whether an optional signal was
// available at all.
type Element struct {
	Role      Role
	ClassName string
	Name      string
	PID       int

	Enabled   bool
	Offscreen bool
	Password  bool

	ReadOnly      bool
	ReadOnlyKnown bool

	KeyboardFocusable bool

	// HasValue is set when the element exposes an editable-value capability.
	HasValue bool
	// HasText is set when the element exposes a text capability.
	HasText bool
}
