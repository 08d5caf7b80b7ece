package engine

import "osk/internal/platform"

// visibility wraps the window collaborator and remembers what it last did.
// It is only touched on the loop.
type visibility struct {
	inner   platform.Visibility
	visible bool
	known   bool
	changed bool
}

func (v *visibility) Show() { v.set(true) }
func (v *visibility) Hide() { v.set(false) }

func (v *visibility) set(on bool) {
	v.changed = !v.known || v.visible != on
	v.visible, v.known = on, true
	if v.inner == nil {
		return
	}
	if on {
		v.inner.Show()
	} else {
		v.inner.Hide()
	}
}

// takeChanged reports whether the last call changed visibility and resets
// the flag.
func (v *visibility) takeChanged() bool {
	c := v.changed
	v.changed = false
	return c
}
