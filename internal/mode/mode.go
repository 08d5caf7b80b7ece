// Package mode owns the script-mode state machine: the current script, the
// temporary Latin overlay, the function layer, and the echo suppression
// window used when the keyboard itself asks the input method to switch.
package mode

import (
	"fmt"
	"log/slog"
	"time"

	"osk/internal/keys"
)

// ScriptMode is the script letter keys currently produce.
type ScriptMode int

const (
	Latin ScriptMode = iota
	NativeScript
)

func (m ScriptMode) String() string {
	if m == NativeScript {
		return "native"
	}
	return "latin"
}

// Other returns the opposite mode.
func (m ScriptMode) Other() ScriptMode {
	if m == NativeScript {
		return Latin
	}
	return NativeScript
}

// FromNative maps an input-method status bit to a mode.
func FromNative(native bool) ScriptMode {
	if native {
		return NativeScript
	}
	return Latin
}

// Overlay is the temporary Latin overlay.
type Overlay struct {
	Active bool
	// FirstPending is set until the first letter of the session is consumed.
	FirstPending bool
}

// Source says who caused a mode transition.
type Source string

const (
	SourceUser     Source = "user"
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// Transition describes one change of ScriptMode.
type Transition struct {
	From   ScriptMode
	To     ScriptMode
	Source Source
	At     time.Time
}

// SwitchTrigger asks the input method to switch script, conventionally by
// tapping Shift.
type SwitchTrigger interface {
	TapSwitchKey() error
}

// OneShotClearer drops every non-lock sticky modifier.
type OneShotClearer interface {
	ClearOneShot()
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	Mode          ScriptMode
	Overlay       Overlay
	FunctionLayer bool
	// Preview shows the other script's labels without changing the mode.
	Preview    bool
	Suppressed bool
}

// Config holds the controller's tunables.
type Config struct {
	Initial    ScriptMode
	EchoWindow time.Duration
}

// DefaultEchoWindow is how long input-method polls are ignored after the
// keyboard triggers a switch itself.
const DefaultEchoWindow = 300 * time.Millisecond

// Controller is the mode state machine. It is owned by the engine loop and is
// not safe for concurrent use.
type Controller struct {
	mode    ScriptMode
	overlay Overlay
	fnLayer bool
	preview bool

	echo       SuppressionWindow
	echoWindow time.Duration

	clock   Clock
	trigger SwitchTrigger
	mods    OneShotClearer
	log     *slog.Logger

	onTransition []func(Transition)
}

// New returns a controller. trigger may be set later with SetTrigger.
func New(cfg Config, clock Clock, mods OneShotClearer, log *slog.Logger) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.EchoWindow <= 0 {
		cfg.EchoWindow = DefaultEchoWindow
	}
	return &Controller{
		mode:       cfg.Initial,
		echoWindow: cfg.EchoWindow,
		clock:      clock,
		mods:       mods,
		log:        log.With("component", "mode"),
	}
}

// SetTrigger installs the switch trigger.
func (c *Controller) SetTrigger(t SwitchTrigger) {
	c.trigger = t
}

// SetEchoWindow changes the suppression duration for future switches.
func (c *Controller) SetEchoWindow(d time.Duration) {
	if d > 0 {
		c.echoWindow = d
	}
}

// OnTransition registers fn to be called after every mode change.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.onTransition = append(c.onTransition, fn)
}

// Mode returns the current script mode.
func (c *Controller) Mode() ScriptMode { return c.mode }

// Overlay returns the temporary Latin overlay.
func (c *Controller) Overlay() Overlay { return c.overlay }

// FunctionLayer reports whether the function layer is on.
func (c *Controller) FunctionLayer() bool { return c.fnLayer }

// EffectiveLatin reports whether letter keys currently behave as Latin.
func (c *Controller) EffectiveLatin() bool {
	return c.mode == Latin || c.overlay.Active
}

// Snapshot returns a copy of the state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Mode:          c.mode,
		Overlay:       c.overlay,
		FunctionLayer: c.fnLayer,
		Preview:       c.preview,
		Suppressed:    c.echo.Active(c.clock.Now()),
	}
}

// ToggleScriptMode taps the switch key, flips the mode, clears the overlay and
// one-shot modifiers, and opens the echo window. A trigger failure is returned
// but the local flip still happens.
func (c *Controller) ToggleScriptMode() error {
	var err error
	if c.trigger != nil {
		if terr := c.trigger.TapSwitchKey(); terr != nil {
			err = fmt.Errorf("mode: trigger switch: %w", terr)
		}
	}
	c.clearTransient()
	now := c.clock.Now()
	c.echo.Open(now, c.echoWindow)
	c.setMode(c.mode.Other(), SourceUser, now)
	return err
}

// ToggleLocal flips the mode without touching the input method and without
// opening the echo window.
func (c *Controller) ToggleLocal() {
	c.clearTransient()
	c.setMode(c.mode.Other(), SourceLocal, c.clock.Now())
}

// TogglePreview flips the label preview. The overlay and sticky Shift are
// dropped.
func (c *Controller) TogglePreview() {
	c.preview = !c.preview
	c.overlay = Overlay{}
	if c.mods != nil {
		c.mods.ClearOneShot()
	}
}

// ToggleFunctionLayer flips the function layer.
func (c *Controller) ToggleFunctionLayer() {
	c.fnLayer = !c.fnLayer
}

// EnterTemporaryLatin starts an overlay session. It returns false and does
// nothing unless the mode is NativeScript.
func (c *Controller) EnterTemporaryLatin() bool {
	if c.mode != NativeScript {
		return false
	}
	c.overlay = Overlay{Active: true, FirstPending: true}
	c.log.Debug("temporary latin on")
	return true
}

// NotifyKeyConsumed advances the overlay after a key was sent.
func (c *Controller) NotifyKeyConsumed(code keys.Code) {
	if !c.overlay.Active {
		return
	}
	switch {
	case code == keys.Enter:
		c.overlay = Overlay{}
		c.log.Debug("temporary latin off")
	case code.IsLetter():
		c.overlay.FirstPending = false
	}
}

// ReconcileExternal applies the input method's state. While the echo window is
// open it does nothing and returns false. Otherwise it returns true when the
// mode changed.
func (c *Controller) ReconcileExternal(native bool) bool {
	now := c.clock.Now()
	if c.echo.Active(now) {
		return false
	}
	want := FromNative(native)
	if want == c.mode {
		return false
	}
	c.overlay = Overlay{}
	c.preview = false
	c.setMode(want, SourceExternal, now)
	return true
}

// Suppressed reports whether the echo window is open.
func (c *Controller) Suppressed() bool {
	return c.echo.Active(c.clock.Now())
}

func (c *Controller) clearTransient() {
	c.overlay = Overlay{}
	c.preview = false
	if c.mods != nil {
		c.mods.ClearOneShot()
	}
}

func (c *Controller) setMode(to ScriptMode, src Source, now time.Time) {
	from := c.mode
	c.mode = to
	if to == Latin {
		c.overlay = Overlay{}
	}
	c.log.Debug("script mode", "from", from, "to", to, "source", src)
	tr := Transition{From: from, To: to, Source: src, At: now}
	for _, fn := range c.onTransition {
		fn(tr)
	}
}
