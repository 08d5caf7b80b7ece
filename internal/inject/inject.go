// Package inject turns virtual key presses into ordered batches of synthetic
// key events.
package inject

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"osk/internal/keys"
	"osk/internal/metrics"
	"osk/internal/mode"
	"osk/internal/modifier"
	"osk/internal/platform"
)

// Actions are the app-level substitutes for key combinations that cannot be
// synthesized.
type Actions interface {
	// OpenTaskManager stands in for the secure-attention sequence.
	OpenTaskManager() error
	// ShowSecurityMenu opens the lock/sign-out menu.
	ShowSecurityMenu()
}

// Injector computes and emits key events for virtual key presses. It is owned
// by the engine loop and is not safe for concurrent use.
type Injector struct {
	catalog *keys.Catalog
	mods    *modifier.State
	ctrl    *mode.Controller
	sink    platform.KeySink
	actions Actions
	metrics *metrics.Keyboard
	log     *slog.Logger

	// swallowModeClick is set by a long press so the click that ends it is
	// not treated as a second toggle.
	swallowModeClick bool
}

// New returns an Injector and installs it as ctrl's switch trigger.
func New(catalog *keys.Catalog, mods *modifier.State, ctrl *mode.Controller, sink platform.KeySink, actions Actions, m *metrics.Keyboard, log *slog.Logger) *Injector {
	if log == nil {
		log = slog.Default()
	}
	in := &Injector{
		catalog: catalog,
		mods:    mods,
		ctrl:    ctrl,
		sink:    sink,
		actions: actions,
		metrics: m,
		log:     log.With("component", "inject"),
	}
	ctrl.SetTrigger(in)
	return in
}

// TapSwitchKey taps Shift, the conventional input-method switch.
func (in *Injector) TapSwitchKey() error {
	return in.send([]platform.KeyEvent{platform.Down(keys.Shift), platform.Up(keys.Shift)})
}

// ModeKeyLongPress flips the mode locally. The click that ends the press is
// swallowed.
func (in *Injector) ModeKeyLongPress() {
	in.swallowModeClick = true
	in.ctrl.ToggleLocal()
}

// Inject handles one press of the key with the given code. OS failures are
// logged and returned; state is advanced regardless.
func (in *Injector) Inject(code keys.Code) error {
	if handled, err := in.intercept(code); handled {
		return err
	}

	sendCode := in.resolve(code)

	if sendCode == keys.Delete && in.mods.Effective(modifier.Ctrl) && in.mods.Effective(modifier.Alt) {
		in.metrics.RecordSecureAttention()
		var err error
		if in.actions != nil {
			err = in.actions.OpenTaskManager()
		}
		in.afterSend()
		if err != nil {
			in.log.Warn("open task manager", "error", err)
		}
		return err
	}

	batch := in.batch(sendCode)
	err := in.send(batch)

	in.afterSend()
	in.ctrl.NotifyKeyConsumed(sendCode)
	return err
}

func (in *Injector) intercept(code keys.Code) (bool, error) {
	switch code {
	case keys.ModeSwitch:
		switch {
		case in.swallowModeClick:
			in.swallowModeClick = false
		case in.ctrl.FunctionLayer():
			in.ctrl.TogglePreview()
		default:
			if err := in.ctrl.ToggleScriptMode(); err != nil {
				in.log.Warn("mode switch", "error", err)
				return true, err
			}
		}
		return true, nil

	case keys.FnLayer:
		in.ctrl.ToggleFunctionLayer()
		return true, nil

	case keys.Shift:
		if in.ctrl.Mode() == mode.NativeScript {
			in.ctrl.EnterTemporaryLatin()
			return true, nil
		}
		return true, in.mods.ToggleSticky(modifier.Shift)

	case keys.Tab:
		if !in.ctrl.FunctionLayer() {
			return false, nil
		}
		if in.actions != nil {
			in.actions.ShowSecurityMenu()
		}
		in.afterSend()
		return true, nil
	}

	if m, ok := modifier.FromCode(code); ok {
		err := in.mods.ToggleSticky(m)
		if m == modifier.Alt {
			in.metrics.RecordAltLock(in.mods.Sticky(modifier.Alt))
		}
		if err != nil {
			in.log.Warn("toggle modifier", "modifier", m, "error", err)
		}
		return true, err
	}
	return false, nil
}

// resolve applies the function layer, then the Alt numpad substitution.
func (in *Injector) resolve(code keys.Code) keys.Code {
	if in.ctrl.FunctionLayer() {
		if target, ok := in.catalog.FunctionTarget(code); ok {
			return target
		}
	}
	if in.mods.Sticky(modifier.Alt) {
		if n, ok := code.Numpad(); ok {
			return n
		}
	}
	return code
}

func (in *Injector) batch(sendCode keys.Code) []platform.KeyEvent {
	overlay := in.ctrl.Overlay()

	want := func(m modifier.Modifier) bool {
		if in.mods.Held(m) {
			return false
		}
		switch m {
		case modifier.Shift:
			return in.mods.Sticky(m) ||
				(overlay.Active && overlay.FirstPending && sendCode.IsLetter())
		default:
			return in.mods.Sticky(m)
		}
	}

	var pressed []keys.Code
	for _, m := range modifier.BatchOrder {
		if want(m) {
			pressed = append(pressed, m.Code())
		}
	}

	events := make([]platform.KeyEvent, 0, len(pressed)*2+2)
	for _, c := range pressed {
		events = append(events, platform.Down(c))
	}
	events = append(events, platform.Down(sendCode), platform.Up(sendCode))
	for i := len(pressed) - 1; i >= 0; i-- {
		events = append(events, platform.Up(pressed[i]))
	}
	return events
}

func (in *Injector) afterSend() {
	if !in.ctrl.Overlay().Active {
		in.mods.ClearOneShot()
	}
}

func (in *Injector) send(events []platform.KeyEvent) error {
	if in.sink == nil {
		return nil
	}
	start := time.Now()
	err := in.sink.Send(events)
	in.metrics.RecordInjection(len(events), time.Since(start), err)
	if err != nil {
		in.log.Warn("send input", "events", len(events), "error", err)
		return fmt.Errorf("inject: %w", err)
	}
	return nil
}

// Shutdown releases the Alt lock if it is down.
func (in *Injector) Shutdown() error {
	err := in.mods.Release()
	in.metrics.RecordAltLock(false)
	if err != nil && !errors.Is(err, platform.ErrNotSupported) {
		in.log.Warn("release alt", "error", err)
	}
	return err
}
