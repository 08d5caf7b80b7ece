package win32

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osk/internal/focusgate"
	"osk/internal/platform"
)

func TestElementFromUIAThroughGate(t *testing.T) {
	rules := focusgate.DefaultRules()
	live := func(in ElementInfo) ElementInfo {
		in.Enabled = true
		in.KeyboardFocusable = true
		in.PID = 900
		return in
	}

	tests := []struct {
		name   string
		in     ElementInfo
		active bool
		reason string
	}{
		{"browser comment box on a photo page",
			live(ElementInfo{ControlType: uiaEdit, ClassName: "", Name: "Write a comment", HasValue: true, ValueReadOnlyKnown: true, HasText: true}),
			true, "edit"},
		{"browser page background",
			live(ElementInfo{ControlType: uiaDocument, ClassName: "Chrome_RenderWidgetHostHWND", Name: "Inbox", HasValue: true, ValueReadOnly: true, ValueReadOnlyKnown: true, HasText: true}),
			false, "document-readonly"},
		{"editable document",
			live(ElementInfo{ControlType: uiaDocument, ClassName: "_WwG", Name: "Document1", HasValue: true, ValueReadOnlyKnown: true, HasText: true}),
			true, "document-value"},
		{"photo in a document",
			live(ElementInfo{ControlType: uiaDocument, Name: "Photo by a friend", HasText: true}),
			false, "media"},
		{"text document without value",
			live(ElementInfo{ControlType: uiaDocument, Name: "Notes", HasText: true}),
			true, "document-text"},
		{"static document",
			live(ElementInfo{ControlType: uiaDocument, Name: "Help"}),
			false, "document-static"},
		{"custom writable control",
			live(ElementInfo{ControlType: uiaPane, ClassName: "Qt5QWindowIcon", HasValue: true, ValueReadOnlyKnown: true}),
			true, "value"},
		{"custom read-only control",
			live(ElementInfo{ControlType: uiaPane, HasValue: true, ValueReadOnly: true, ValueReadOnlyKnown: true}),
			false, "not-editable"},
		{"image",
			live(ElementInfo{ControlType: uiaImage, Name: "Photo"}),
			false, "not-editable"},
		{"button",
			live(ElementInfo{ControlType: uiaButton, Name: "OK"}),
			false, "not-editable"},
		{"password box",
			live(ElementInfo{ControlType: uiaEdit, Password: true}),
			true, "password"},
		{"taskbar",
			live(ElementInfo{ControlType: uiaPane, ClassName: "Shell_TrayWnd"}),
			false, "shell"},
		{"desktop",
			live(ElementInfo{ControlType: uiaGroup, ClassName: "Progman"}),
			false, "shell"},
		{"start button",
			live(ElementInfo{ControlType: uiaButton, Name: "Start"}),
			false, "shell"},
		{"disabled edit",
			ElementInfo{ControlType: uiaEdit, KeyboardFocusable: true},
			false, "disabled"},
		{"offscreen edit",
			ElementInfo{ControlType: uiaEdit, Enabled: true, Offscreen: true},
			false, "offscreen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := focusgate.Classify(ElementFromUIA(tt.in), rules)
			assert.Equal(t, tt.active, v.Active, "reason %q", v.Reason)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestElementFromUIAReadOnlyNeedsValuePattern(t *testing.T) {
	el := ElementFromUIA(ElementInfo{ControlType: uiaDocument, ValueReadOnly: true, ValueReadOnlyKnown: true})
	assert.False(t, el.ReadOnlyKnown)

	el = ElementFromUIA(ElementInfo{ControlType: uiaDocument, HasValue: true})
	assert.False(t, el.ReadOnlyKnown)

	el = ElementFromUIA(ElementInfo{ControlType: uiaDocument, HasValue: true, ValueReadOnly: true, ValueReadOnlyKnown: true})
	assert.True(t, el.ReadOnlyKnown)
	assert.True(t, el.ReadOnly)
}

func TestElementFromUIACarriesIdentity(t *testing.T) {
	el := ElementFromUIA(ElementInfo{
		ControlType: uiaEdit,
		ClassName:   "RichEditD2DPT",
		Name:        "Message",
		PID:         31,
	})
	assert.Equal(t, platform.RoleEdit, el.Role)
	assert.Equal(t, "RichEditD2DPT", el.ClassName)
	assert.Equal(t, "Message", el.Name)
	assert.Equal(t, 31, el.PID)
}
