package atspi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osk/internal/focusgate"
	"osk/internal/platform"
)

func live(extra ...int) States {
	return StatesOf(append([]int{stateEnabled, stateSensitive, stateShowing, stateVisible, stateFocusable, stateFocused}, extra...)...)
}

func TestStates(t *testing.T) {
	st := StatesOf(stateEditable, stateReadOnly)
	assert.True(t, st.Has(stateEditable))
	assert.True(t, st.Has(stateReadOnly))
	assert.False(t, st.Has(stateFocused))
	assert.False(t, States{}.Has(stateEditable))
	assert.False(t, StatesOf().Has(70))
}

func TestElementFromInfoThroughGate(t *testing.T) {
	rules := focusgate.DefaultRules()
	text := []string{ifaceAccessible, ifaceText}
	editable := []string{ifaceAccessible, ifaceText, ifaceEditableText}

	tests := []struct {
		name   string
		info   Info
		role   platform.Role
		active bool
		reason string
	}{
		{"gtk entry", Info{Role: roleEntry, States: live(stateEditable), Interfaces: editable}, platform.RoleEdit, true, "edit"},
		{"label text", Info{Role: roleText, States: live(), Interfaces: text}, platform.RoleOther, false, "not-editable"},
		{"read-only state wins", Info{Role: roleEntry, States: live(stateEditable, stateReadOnly), Interfaces: editable}, platform.RoleOther, false, "not-editable"},
		{"password", Info{Role: rolePasswordText, States: live(stateEditable), Interfaces: editable}, platform.RoleEdit, true, "password"},
		{"terminal", Info{Role: roleTerminal, States: live(stateEditable), Interfaces: editable}, platform.RoleEdit, true, "edit"},
		{"editable combo", Info{Role: roleComboBox, States: live(), Interfaces: editable}, platform.RoleComboBox, true, "combobox"},
		{"plain combo", Info{Role: roleComboBox, States: live(), Interfaces: []string{ifaceAccessible}}, platform.RoleOther, false, "not-editable"},
		{"web page", Info{Role: roleDocWeb, States: live(), Interfaces: text}, platform.RoleDocument, false, "document-readonly"},
		{"content editable", Info{Role: roleDocWeb, States: live(stateEditable), Interfaces: editable}, platform.RoleDocument, true, "document-value"},
		{"desktop", Info{Role: roleDesktopFrame, States: live()}, platform.RoleShell, false, "shell"},
		{"insensitive", Info{Role: roleEntry, States: StatesOf(stateShowing, stateEditable), Interfaces: editable}, platform.RoleEdit, false, "disabled"},
		{"hidden", Info{Role: roleEntry, States: StatesOf(stateEnabled, stateEditable), Interfaces: editable}, platform.RoleEdit, false, "offscreen"},
		{"slider value", Info{Role: 51, States: live(), Interfaces: []string{ifaceValue}}, platform.RoleOther, false, "not-editable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := ElementFromInfo(tt.info)
			assert.Equal(t, tt.role, el.Role)
			v := focusgate.Classify(el, rules)
			assert.Equal(t, tt.active, v.Active)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestElementFromInfoCarriesIdentity(t *testing.T) {
	el := ElementFromInfo(Info{Role: roleEntry, States: live(stateEditable), Name: "To", App: "thunderbird", PID: 77})
	assert.Equal(t, "To", el.Name)
	assert.Equal(t, "thunderbird", el.ClassName)
	assert.Equal(t, 77, el.PID)
	assert.True(t, el.KeyboardFocusable)
}
