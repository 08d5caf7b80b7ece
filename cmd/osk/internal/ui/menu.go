package ui

import (
	"image"
	"sync/atomic"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"osk/cmd/osk/internal/theme"
	"osk/internal/actions"
)

// Menu is the security menu opened by Ctrl+Alt+Del on the keyboard.
type Menu struct {
	theme      *theme.Theme
	run        func(actions.Item)
	invalidate func()

	open    atomic.Bool
	items   []actions.Item
	buttons []widget.Clickable
}

// NewMenu creates a closed menu. run is called for every item except Cancel;
// invalidate requests a redraw after Show.
func NewMenu(t *theme.Theme, run func(actions.Item), invalidate func()) *Menu {
	return &Menu{
		theme:      t,
		run:        run,
		invalidate: invalidate,
		items:      actions.MenuItems,
		buttons:    make([]widget.Clickable, len(actions.MenuItems)),
	}
}

// Show opens the menu. It is safe to call from any goroutine.
func (m *Menu) Show() {
	m.open.Store(true)
	if m.invalidate != nil {
		m.invalidate()
	}
}

// Close hides the menu.
func (m *Menu) Close() { m.open.Store(false) }

// IsOpen reports whether the menu is showing.
func (m *Menu) IsOpen() bool { return m.open.Load() }

// Layout draws the menu over a scrim and dispatches clicks.
func (m *Menu) Layout(gtx layout.Context) layout.Dimensions {
	for i := range m.buttons {
		if m.buttons[i].Clicked(gtx) {
			m.Close()
			if item := m.items[i]; item != actions.Cancel && m.run != nil {
				m.run(item)
			}
		}
	}

	paint.FillShape(gtx.Ops, m.theme.Palette.Scrim, clip.Rect(image.Rectangle{Max: gtx.Constraints.Max}).Op())

	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		gtx.Constraints.Min.X = gtx.Dp(240)
		children := make([]layout.FlexChild, 0, 2*len(m.items))
		for i, item := range m.items {
			if i > 0 {
				children = append(children, layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout))
			}
			btn := &m.buttons[i]
			label := item.Label()
			children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				b := material.Button(m.theme.Theme, btn, label)
				b.TextSize = m.theme.Config.FontMenu
				b.Background = m.theme.Palette.Surface
				b.Color = m.theme.Palette.Text
				return b.Layout(gtx)
			}))
		}
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	})
}
