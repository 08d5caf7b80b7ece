// Package ui draws the keyboard and the security menu.
package ui

import (
	"image"
	"sync"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"osk/cmd/osk/internal/theme"
	"osk/internal/display"
	"osk/internal/keys"
)

// Input receives key presses from the surface.
type Input interface {
	Press(code keys.Code)
	ModeKey(down bool)
}

// Keyboard renders the latest display frame and turns clicks into presses.
type Keyboard struct {
	theme *theme.Theme
	input Input
	menu  *Menu

	mu    sync.Mutex
	frame display.Frame

	buttons  map[keys.Code]*widget.Clickable
	modeTag  bool
	modeDown bool
}

// NewKeyboard creates the keyboard surface. menu may be nil.
func NewKeyboard(t *theme.Theme, input Input, menu *Menu) *Keyboard {
	return &Keyboard{
		theme:   t,
		input:   input,
		menu:    menu,
		buttons: make(map[keys.Code]*widget.Clickable),
	}
}

// SetFrame replaces the frame drawn on the next layout. It is safe to call
// from any goroutine.
func (k *Keyboard) SetFrame(f display.Frame) {
	k.mu.Lock()
	k.frame = f
	k.mu.Unlock()
}

func (k *Keyboard) currentFrame() display.Frame {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.frame
}

// Layout draws the keyboard, or the security menu while it is open.
func (k *Keyboard) Layout(gtx layout.Context) layout.Dimensions {
	paint.Fill(gtx.Ops, k.theme.Palette.Background)

	if k.menu != nil && k.menu.IsOpen() {
		return k.menu.Layout(gtx)
	}

	for code, btn := range k.buttons {
		for btn.Clicked(gtx) {
			k.input.Press(code)
		}
	}

	frame := k.currentFrame()
	pad := gtx.Dp(k.theme.Config.Padding)
	gap := gtx.Dp(k.theme.Config.KeyGap)
	area := gtx.Constraints.Max.Sub(image.Pt(2*pad, 2*pad))
	rowH := RowHeight(area.Y, len(frame.Rows), gap)

	for r, row := range frame.Rows {
		widths := make([]float32, len(row))
		for i, key := range row {
			widths[i] = key.Width
		}
		y := pad + r*(rowH+gap)
		for i, rect := range RowRects(widths, area.X, rowH, gap) {
			stack := op.Offset(rect.Min.Add(image.Pt(pad, y))).Push(gtx.Ops)
			kgtx := gtx
			kgtx.Constraints = layout.Exact(rect.Size())
			k.layoutKey(kgtx, row[i])
			stack.Pop()
		}
	}
	return layout.Dimensions{Size: gtx.Constraints.Max}
}

func (k *Keyboard) layoutKey(gtx layout.Context, key display.Key) layout.Dimensions {
	if key.Code == keys.ModeSwitch {
		return k.layoutModeKey(gtx, key)
	}
	btn := k.buttons[key.Code]
	if btn == nil {
		btn = new(widget.Clickable)
		k.buttons[key.Code] = btn
	}
	return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return k.face(gtx, key, key.Pressed || btn.Pressed())
	})
}

// layoutModeKey reports raw press and release so the engine can tell a tap
// from a long press.
func (k *Keyboard) layoutModeKey(gtx layout.Context, key display.Key) layout.Dimensions {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: &k.modeTag,
			Kinds:  pointer.Press | pointer.Release | pointer.Cancel,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Press:
			if !k.modeDown {
				k.modeDown = true
				k.input.ModeKey(true)
			}
		case pointer.Release, pointer.Cancel:
			if k.modeDown {
				k.modeDown = false
				k.input.ModeKey(false)
			}
		}
	}

	area := clip.Rect(image.Rectangle{Max: gtx.Constraints.Min}).Push(gtx.Ops)
	event.Op(gtx.Ops, &k.modeTag)
	area.Pop()
	return k.face(gtx, key, key.Pressed || k.modeDown)
}

func (k *Keyboard) face(gtx layout.Context, key display.Key, pressed bool) layout.Dimensions {
	size := gtx.Constraints.Min
	rr := clip.UniformRRect(image.Rectangle{Max: size}, gtx.Dp(k.theme.Config.CornerRadius))
	paint.FillShape(gtx.Ops, k.theme.KeyFill(pressed), rr.Op(gtx.Ops))

	layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		l := material.Label(k.theme.Theme, k.theme.Config.FontKey, key.Label)
		l.Color = k.theme.LabelColor(key.Color)
		l.MaxLines = 1
		return l.Layout(gtx)
	})
	return layout.Dimensions{Size: size}
}
