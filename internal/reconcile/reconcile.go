// Package reconcile feeds the OS input-method state into the mode controller.
package reconcile

import (
	"errors"
	"log/slog"

	"osk/internal/metrics"
	"osk/internal/mode"
	"osk/internal/platform"
)

// Result is the outcome of one poll.
type Result int

const (
	// Unchanged means the poll agreed with the current mode.
	Unchanged Result = iota
	// Changed means the mode was updated from the input method.
	Changed
	// Suppressed means the echo window was open and the poll was ignored.
	Suppressed
	// NoInfo means the input method could not be queried.
	NoInfo
)

func (r Result) String() string {
	switch r {
	case Changed:
		return "changed"
	case Suppressed:
		return "suppressed"
	case NoInfo:
		return "no-info"
	}
	return "unchanged"
}

// Reconciler polls an IMEQuery and applies it to a Controller.
type Reconciler struct {
	ime     platform.IMEQuery
	ctrl    *mode.Controller
	metrics *metrics.Keyboard
	log     *slog.Logger
}

func New(ime platform.IMEQuery, ctrl *mode.Controller, m *metrics.Keyboard, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{ime: ime, ctrl: ctrl, metrics: m, log: log.With("component", "reconcile")}
}

// Tick runs one poll. Errors never propagate; they leave the mode unchanged.
func (r *Reconciler) Tick() Result {
	if r.ime == nil {
		return NoInfo
	}
	native, err := r.ime.ConversionState()
	if err != nil {
		if errors.Is(err, platform.ErrUnavailable) {
			r.metrics.RecordIMEPoll(false, true, nil)
		} else {
			r.metrics.RecordIMEPoll(false, false, err)
			r.log.Debug("ime query failed", "error", err)
		}
		return NoInfo
	}
	if r.ctrl.Suppressed() {
		r.metrics.RecordIMEPoll(true, false, nil)
		return Suppressed
	}
	if r.ctrl.ReconcileExternal(native) {
		return Changed
	}
	return Unchanged
}
