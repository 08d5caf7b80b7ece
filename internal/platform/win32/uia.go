package win32

import "osk/internal/platform"

// UI Automation control type identifiers.
const (
	uiaButton   int32 = 50000
	uiaComboBox int32 = 50003
	uiaEdit     int32 = 50004
	uiaImage    int32 = 50006
	uiaGroup    int32 = 50026
	uiaDocument int32 = 50030
	uiaPane     int32 = 50033
)

// ElementInfo is what UI Automation reports about the focused element.
type ElementInfo struct {
	ControlType int32
	ClassName   string
	Name        string
	PID         int

	Password          bool
	Enabled           bool
	Offscreen         bool
	KeyboardFocusable bool

	// HasValue is set when the element supports the Value pattern.
	// ValueReadOnly is only meaningful when ValueReadOnlyKnown is set.
	HasValue           bool
	ValueReadOnly      bool
	ValueReadOnlyKnown bool

	// HasText is set when the element supports the Text pattern.
	HasText bool
}

func roleOfControlType(ct int32) platform.Role {
	switch ct {
	case uiaEdit:
		return platform.RoleEdit
	case uiaComboBox:
		return platform.RoleComboBox
	case uiaDocument:
		return platform.RoleDocument
	}
	return platform.RoleOther
}

// ElementFromUIA maps a UI Automation element onto the platform element
// model. Read-only state comes only from the Value pattern; desktop and
// taskbar windows are recognised by class.
func ElementFromUIA(in ElementInfo) platform.Element {
	el := platform.Element{
		Role:              roleOfControlType(in.ControlType),
		ClassName:         in.ClassName,
		Name:              in.Name,
		PID:               in.PID,
		Enabled:           in.Enabled,
		Offscreen:         in.Offscreen,
		Password:          in.Password,
		KeyboardFocusable: in.KeyboardFocusable,
		HasValue:          in.HasValue,
		HasText:           in.HasText,
	}
	if in.HasValue && in.ValueReadOnlyKnown {
		el.ReadOnly, el.ReadOnlyKnown = in.ValueReadOnly, true
	}
	if RoleOf(in.ClassName) == platform.RoleShell {
		el.Role = platform.RoleShell
	}
	return el
}
