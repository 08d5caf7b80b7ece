// Package engine runs the keyboard's single serialized event loop.
//
// Every piece of mutable keyboard state (modifiers, script mode, focus gate)
// is owned by the goroutine running Run. Key presses, timers, focus
// notifications, configuration reloads and control commands are all
// marshaled onto that goroutine through channels.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"osk/internal/config"
	"osk/internal/display"
	"osk/internal/focusgate"
	"osk/internal/inject"
	"osk/internal/journal"
	"osk/internal/keys"
	"osk/internal/logging"
	"osk/internal/metrics"
	"osk/internal/mode"
	"osk/internal/modifier"
	"osk/internal/platform"
	"osk/internal/reconcile"
)

var (
	ErrAlreadyRunning = errors.New("engine: already running")
	ErrStopped        = errors.New("engine: stopped")
)

// Options wires an Engine to its collaborators. Only Catalog, Sink and
// Visibility are required; a nil query simply yields no information.
type Options struct {
	Catalog    *keys.Catalog
	Sink       platform.KeySink
	Physical   platform.PhysicalKeys
	IME        platform.IMEQuery
	Caret      platform.CaretQuery
	Focus      platform.FocusSource
	Visibility platform.Visibility
	Actions    inject.Actions

	Journal *journal.Journal
	Metrics *metrics.Keyboard
	Clock   mode.Clock
	Crash   *logging.CrashGuard

	// Reload re-reads the configuration. Changes come back through Apply.
	Reload func() error

	Config   *config.Config
	SelfPID  int
	Version  string
	Injector string
	Log      *slog.Logger
}

// Engine owns the keyboard state.
type Engine struct {
	opts Options
	log  *slog.Logger

	mods     *modifier.State
	ctrl     *mode.Controller
	injector *inject.Injector
	recon    *reconcile.Reconciler
	gate     *focusgate.Gate
	vis      *visibility

	pollCodes []keys.Code
	intervals intervals
	longPress time.Duration
	autoShow  bool

	// Observed on the sync tick.
	physShift bool
	caps      bool
	pressed   map[keys.Code]bool

	lastInput display.Input
	published bool

	modeKeyGen   uint64
	modeKeyTimer *time.Timer

	presses   chan keys.Code
	modeKey   chan bool
	longFired chan uint64
	cmds      chan func()
	reloads   chan *config.Config
	frames    chan display.Frame

	startedAt time.Time
	mu        sync.Mutex
	running   bool
	done      chan struct{}
}

type intervals struct {
	sync, ime, caret time.Duration
}

// New builds an Engine in its initial state. Nothing runs until Run.
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Clock == nil {
		opts.Clock = mode.SystemClock{}
	}
	if opts.SelfPID == 0 {
		opts.SelfPID = os.Getpid()
	}
	cfg := opts.Config

	e := &Engine{
		opts:      opts,
		log:       opts.Log.With("component", "engine"),
		presses:   make(chan keys.Code, 32),
		modeKey:   make(chan bool, 4),
		longFired: make(chan uint64, 1),
		cmds:      make(chan func()),
		reloads:   make(chan *config.Config, 1),
		frames:    make(chan display.Frame, 1),
		done:      make(chan struct{}),
	}

	e.mods = modifier.New(opts.Sink)
	e.ctrl = mode.New(mode.Config{
		Initial:    cfg.Keyboard.InitialScriptMode(),
		EchoWindow: cfg.Mode.EchoWindow(),
	}, opts.Clock, e.mods, opts.Log)
	e.injector = inject.New(opts.Catalog, e.mods, e.ctrl, opts.Sink, opts.Actions, opts.Metrics, opts.Log)
	e.recon = reconcile.New(opts.IME, e.ctrl, opts.Metrics, opts.Log)
	e.vis = &visibility{inner: opts.Visibility, visible: !cfg.Window.StartHidden, known: true}
	e.gate = focusgate.New(e.vis, cfg.Focus.Rules(), opts.SelfPID, opts.Log)

	e.ctrl.OnTransition(e.onTransition)

	e.pollCodes = append(opts.Catalog.Codes(), keys.Shift, keys.Control, keys.Alt, keys.Meta)
	e.applyTunables(cfg)
	return e
}

// Frames delivers display frames. Only the latest frame is kept; a slow
// reader skips intermediate ones. The channel is closed when Run returns.
func (e *Engine) Frames() <-chan display.Frame {
	return e.frames
}

// Press queues a virtual key press. It never blocks the caller for long; if
// the loop has stopped the press is dropped.
func (e *Engine) Press(code keys.Code) {
	select {
	case e.presses <- code:
	case <-e.done:
	}
}

// ModeKey reports the Mode key going down or up. A press held longer than the
// long-press duration flips the mode locally.
func (e *Engine) ModeKey(down bool) {
	select {
	case e.modeKey <- down:
	case <-e.done:
	}
}

// Apply queues a new configuration. Only the latest pending one is kept.
func (e *Engine) Apply(cfg *config.Config) {
	for {
		select {
		case e.reloads <- cfg:
			return
		default:
		}
		select {
		case <-e.reloads:
		default:
		}
	}
}

// Do runs fn on the loop and waits for it to finish. If the loop dies while
// fn runs, Do returns ErrStopped.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		fn()
		close(finished)
	}
	select {
	case e.cmds <- wrapped:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-e.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run owns the state until ctx is done. On return the focus source is closed,
// any Alt lock has been released and Frames is closed.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.startedAt = time.Now()
	e.mu.Unlock()

	defer close(e.done)
	defer close(e.frames)
	defer e.teardown()
	if e.opts.Crash != nil {
		e.opts.Crash.OnCrash(func() { e.injector.Shutdown() })
		defer e.opts.Crash.Recover()
	}

	var focus <-chan platform.FocusChange
	if e.opts.Focus != nil {
		if err := e.opts.Focus.Start(ctx); err != nil {
			e.log.Warn("focus source unavailable", "error", err)
		} else {
			focus = e.opts.Focus.Changes()
		}
	}

	syncT := time.NewTicker(e.intervals.sync)
	imeT := time.NewTicker(e.intervals.ime)
	caretT := time.NewTicker(e.intervals.caret)
	defer syncT.Stop()
	defer imeT.Stop()
	defer caretT.Stop()

	e.log.Info("engine started",
		"mode", e.ctrl.Mode(),
		"injector", e.opts.Injector,
		"sync", e.intervals.sync,
		"ime_poll", e.intervals.ime,
		"caret_poll", e.intervals.caret,
	)
	e.publish()

	for {
		select {
		case <-ctx.Done():
			return nil

		case code := <-e.presses:
			e.press(code)

		case down := <-e.modeKey:
			e.modeKeyEvent(down)

		case gen := <-e.longFired:
			e.longPressFired(gen)

		case fn := <-e.cmds:
			e.drainInput()
			fn()
			e.publish()

		case cfg := <-e.reloads:
			old := e.intervals
			e.applyConfig(cfg)
			if e.intervals.sync != old.sync {
				syncT.Reset(e.intervals.sync)
			}
			if e.intervals.ime != old.ime {
				imeT.Reset(e.intervals.ime)
			}
			if e.intervals.caret != old.caret {
				caretT.Reset(e.intervals.caret)
			}

		case fc, ok := <-focus:
			if !ok {
				focus = nil
				continue
			}
			e.focusChanged(fc)

		case <-syncT.C:
			e.syncTick()

		case <-imeT.C:
			e.imeTick()

		case <-caretT.C:
			e.caretTick()
		}
	}
}

// drainInput handles presses queued before a command so the command sees
// their effect.
func (e *Engine) drainInput() {
	for {
		select {
		case code := <-e.presses:
			e.press(code)
		case down := <-e.modeKey:
			e.modeKeyEvent(down)
		default:
			return
		}
	}
}

// teardown releases the Alt lock before anything else is closed.
func (e *Engine) teardown() {
	if err := e.injector.Shutdown(); err != nil {
		e.log.Warn("release alt on shutdown", "error", err)
	}
	if e.modeKeyTimer != nil {
		e.modeKeyTimer.Stop()
	}
	if e.opts.Focus != nil {
		if err := e.opts.Focus.Close(); err != nil {
			e.log.Debug("close focus source", "error", err)
		}
	}
	e.log.Info("engine stopped")
}

func (e *Engine) press(code keys.Code) {
	if code == keys.ModeSwitch {
		// The Mode key arrives through ModeKey so long presses can be timed.
		e.modeKeyEvent(false)
		return
	}
	if err := e.injector.Inject(code); err != nil {
		e.log.Debug("inject", "code", code, "error", err)
	}
	e.publish()
}

func (e *Engine) modeKeyEvent(down bool) {
	if down {
		e.modeKeyGen++
		gen := e.modeKeyGen
		if e.modeKeyTimer != nil {
			e.modeKeyTimer.Stop()
		}
		e.modeKeyTimer = time.AfterFunc(e.longPress, func() {
			select {
			case e.longFired <- gen:
			case <-e.done:
			}
		})
		return
	}
	if e.modeKeyTimer != nil {
		e.modeKeyTimer.Stop()
		e.modeKeyTimer = nil
	}
	// A release after a long press is swallowed by the injector.
	e.modeKeyGen++
	if err := e.injector.Inject(keys.ModeSwitch); err != nil {
		e.log.Debug("mode key", "error", err)
	}
	e.publish()
}

func (e *Engine) longPressFired(gen uint64) {
	if gen != e.modeKeyGen {
		return
	}
	e.injector.ModeKeyLongPress()
	e.publish()
}

func (e *Engine) syncTick() {
	if e.opts.Physical == nil {
		return
	}
	st, err := e.opts.Physical.Poll(e.pollCodes)
	if err != nil {
		e.log.Debug("poll physical keys", "error", err)
		return
	}
	for _, m := range modifier.All {
		e.mods.ObservePhysical(m, st.Held(m.Code()))
	}

	shift := st.Held(keys.Shift)
	if shift && !e.physShift && e.ctrl.Mode() == mode.NativeScript {
		e.ctrl.EnterTemporaryLatin()
	}
	e.physShift = shift
	e.caps = st.CapsLock
	e.pressed = st.Down
	e.publish()
}

func (e *Engine) imeTick() {
	if r := e.recon.Tick(); r == reconcile.Changed {
		e.publish()
	}
}

func (e *Engine) caretTick() {
	if e.opts.Caret == nil || !e.autoShow {
		return
	}
	c, err := e.opts.Caret.CaretPresence()
	e.decided(e.gate.OnCaret(c, err))
}

func (e *Engine) focusChanged(fc platform.FocusChange) {
	e.opts.Metrics.RecordFocusEvent()
	if !e.autoShow {
		return
	}
	e.decided(e.gate.OnFocus(fc))
}

// decided records a gate decision that actually changed visibility. Repeated
// hides from the caret poll are not.
func (e *Engine) decided(d focusgate.Decision) {
	if d.Action == focusgate.NoAction || !e.vis.takeChanged() {
		return
	}
	e.opts.Metrics.RecordVisibility(d.Action.String(), d.Source.String())
	e.opts.Journal.Record(journal.VisibilityEntry(d, e.opts.Clock.Now()))
}

func (e *Engine) onTransition(t mode.Transition) {
	e.opts.Metrics.RecordModeTransition(string(t.Source), t.To.String())
	e.opts.Journal.Record(journal.ModeEntry(t))
}

func (e *Engine) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	e.opts.Config = cfg
	e.ctrl.SetEchoWindow(cfg.Mode.EchoWindow())
	e.gate.SetRules(cfg.Focus.Rules())
	e.applyTunables(cfg)
	e.log.Info("configuration applied",
		"echo_window", cfg.Mode.EchoWindow(),
		"long_press", e.longPress,
		"auto_show", e.autoShow,
	)
}

func (e *Engine) applyTunables(cfg *config.Config) {
	e.intervals = intervals{
		sync:  cfg.Sync.Tick(),
		ime:   cfg.Sync.IMEPoll(),
		caret: cfg.Sync.CaretPoll(),
	}
	e.longPress = cfg.Mode.LongPress()
	e.autoShow = cfg.Focus.AutoShow
}

// publish projects the state and offers the frame if anything changed.
func (e *Engine) publish() {
	in := display.Input{
		Mods:     e.mods.Snapshot(),
		Mode:     e.ctrl.Snapshot(),
		CapsLock: e.caps,
		Pressed:  e.pressed,
	}
	if e.published && sameInput(in, e.lastInput) {
		return
	}
	e.lastInput, e.published = in, true

	f := display.Project(e.opts.Catalog, in)
	select {
	case <-e.frames:
	default:
	}
	select {
	case e.frames <- f:
	default:
	}
}

func sameInput(a, b display.Input) bool {
	if a.Mods != b.Mods || a.Mode != b.Mode || a.CapsLock != b.CapsLock {
		return false
	}
	if len(a.Pressed) != len(b.Pressed) {
		return false
	}
	for k, v := range a.Pressed {
		if b.Pressed[k] != v {
			return false
		}
	}
	return true
}
