package main

import (
	"sync"

	"gioui.org/app"
)

// windowVisibility shows and hides the keyboard window by restoring and
// minimizing it. Both calls are idempotent.
type windowVisibility struct {
	w *app.Window

	mu      sync.Mutex
	visible bool
}

func newWindowVisibility(w *app.Window) *windowVisibility {
	return &windowVisibility{w: w, visible: true}
}

func (v *windowVisibility) Show() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.visible {
		return
	}
	v.visible = true
	v.w.Option(app.Windowed.Option())
}

func (v *windowVisibility) Hide() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.visible {
		return
	}
	v.visible = false
	v.w.Option(app.Minimized.Option())
}
