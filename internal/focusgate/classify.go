package focusgate

import (
	"strings"

	"osk/internal/platform"
)

// Rules are the name and class heuristics used by Classify.
type Rules struct {
	// ShellClassMarkers hide the keyboard when contained in the class name.
	ShellClassMarkers []string
	// ShellNames hide the keyboard when equal to the element name.
	ShellNames []string
	// MediaNameMarkers mark a text-capable document as a picture, not an
	// editor, when contained in the element name.
	MediaNameMarkers []string
}

// DefaultRules returns the built-in heuristics.
func DefaultRules() Rules {
	return Rules{
		ShellClassMarkers: []string{"Shell_", "Tray"},
		ShellNames:        []string{"開始", "Start", "Search"},
		MediaNameMarkers:  []string{"圖片", "Photo"},
	}
}

// Verdict is the classification of one focused element.
type Verdict struct {
	Active bool
	Reason string
}

// Classify decides whether el is an editable text area. The checks run in
// order and the first that matches wins.
func Classify(el platform.Element, rules Rules) Verdict {
	if isShell(el, rules) {
		return Verdict{Reason: "shell"}
	}
	if !el.Enabled {
		return Verdict{Reason: "disabled"}
	}
	if el.Offscreen {
		return Verdict{Reason: "offscreen"}
	}
	if el.Password {
		return Verdict{Active: true, Reason: "password"}
	}

	switch el.Role {
	case platform.RoleEdit:
		return Verdict{Active: true, Reason: "edit"}
	case platform.RoleComboBox:
		return Verdict{Active: true, Reason: "combobox"}
	case platform.RoleDocument:
		return classifyDocument(el, rules)
	}

	if el.HasValue && !el.ReadOnly && el.KeyboardFocusable {
		return Verdict{Active: true, Reason: "value"}
	}
	return Verdict{Reason: "not-editable"}
}

func classifyDocument(el platform.Element, rules Rules) Verdict {
	if el.ReadOnlyKnown {
		if el.ReadOnly {
			return Verdict{Reason: "document-readonly"}
		}
		return Verdict{Active: true, Reason: "document-value"}
	}
	if el.HasText && el.KeyboardFocusable {
		if containsAny(el.Name, rules.MediaNameMarkers) {
			return Verdict{Reason: "media"}
		}
		return Verdict{Active: true, Reason: "document-text"}
	}
	return Verdict{Reason: "document-static"}
}

func isShell(el platform.Element, rules Rules) bool {
	if el.Role == platform.RoleShell {
		return true
	}
	if containsAny(el.ClassName, rules.ShellClassMarkers) {
		return true
	}
	for _, n := range rules.ShellNames {
		if el.Name == n {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
