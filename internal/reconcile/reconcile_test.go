package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"osk/internal/metrics"
	"osk/internal/mode"
	"osk/internal/platform"
	"osk/internal/platform/platformtest"
)

type noTap struct{}

func (noTap) TapSwitchKey() error { return nil }

func setup(initial mode.ScriptMode) (*Reconciler, *mode.Controller, *mode.ManualClock, *platformtest.IME, *metrics.Keyboard) {
	clock := mode.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := mode.New(mode.Config{Initial: initial, EchoWindow: 300 * time.Millisecond}, clock, nil, nil)
	ctrl.SetTrigger(noTap{})
	ime := &platformtest.IME{}
	m := metrics.NewKeyboard(metrics.NewRegistry("test"))
	return New(ime, ctrl, m, nil), ctrl, clock, ime, m
}

func TestTickApplies(t *testing.T) {
	r, ctrl, _, ime, _ := setup(mode.Latin)

	ime.Set(true, nil)
	assert.Equal(t, Changed, r.Tick())
	assert.Equal(t, mode.NativeScript, ctrl.Mode())

	assert.Equal(t, Unchanged, r.Tick())
}

func TestTickSuppressedUntilWindowExpires(t *testing.T) {
	r, ctrl, clock, ime, m := setup(mode.NativeScript)
	assert.NoError(t, ctrl.ToggleScriptMode())

	// The IME has not switched yet and still reports native.
	ime.Set(true, nil)
	for i := 0; i < 4; i++ {
		clock.Advance(60 * time.Millisecond)
		assert.Equal(t, Suppressed, r.Tick())
		assert.Equal(t, mode.Latin, ctrl.Mode())
	}

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, Changed, r.Tick())
	assert.Equal(t, mode.NativeScript, ctrl.Mode())
	assert.Equal(t, uint64(4), m.EchoSuppressed.Value())
}

func TestTickUnavailableLeavesModeAlone(t *testing.T) {
	r, ctrl, _, ime, m := setup(mode.NativeScript)
	ime.Set(false, platform.ErrUnavailable)

	assert.Equal(t, NoInfo, r.Tick())
	assert.Equal(t, mode.NativeScript, ctrl.Mode())
	assert.Equal(t, uint64(1), m.IMEUnavailable.Value())
}

func TestTickFailureLeavesModeAlone(t *testing.T) {
	r, ctrl, _, ime, m := setup(mode.Latin)
	ime.Set(true, errors.New("access denied"))

	assert.Equal(t, NoInfo, r.Tick())
	assert.Equal(t, mode.Latin, ctrl.Mode())
	assert.Equal(t, uint64(1), m.IMEFailures.Value())
}

func TestNilQuery(t *testing.T) {
	ctrl := mode.New(mode.Config{}, nil, nil, nil)
	assert.Equal(t, NoInfo, New(nil, ctrl, nil, nil).Tick())
}
