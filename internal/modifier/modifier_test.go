package modifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/keys"
	"osk/internal/platform"
	"osk/internal/platform/platformtest"
)

func TestToggleStickyOneShot(t *testing.T) {
	sink := &platformtest.Sink{}
	s := New(sink)

	require.NoError(t, s.ToggleSticky(Shift))
	assert.True(t, s.Sticky(Shift))
	assert.True(t, s.Effective(Shift))
	assert.Empty(t, sink.Events(), "one-shot modifiers emit nothing on toggle")

	require.NoError(t, s.ToggleSticky(Shift))
	assert.False(t, s.Sticky(Shift))
}

func TestAltLockEmitsImmediately(t *testing.T) {
	sink := &platformtest.Sink{}
	s := New(sink)

	require.NoError(t, s.ToggleSticky(Alt))
	require.NoError(t, s.ToggleSticky(Alt))

	assert.Equal(t, []platform.KeyEvent{
		platform.Down(keys.Alt),
		platform.Up(keys.Alt),
	}, sink.Events())
}

func TestReleaseEmitsAltUpOnce(t *testing.T) {
	sink := &platformtest.Sink{}
	s := New(sink)

	require.NoError(t, s.ToggleSticky(Alt))
	require.NoError(t, s.Release())
	require.NoError(t, s.Release())

	assert.Equal(t, 1, sink.Count(keys.Alt, false))
	assert.Equal(t, 1, sink.Count(keys.Alt, true))
	assert.False(t, s.Sticky(Alt))
}

func TestReleaseWithoutLockIsSilent(t *testing.T) {
	sink := &platformtest.Sink{}
	s := New(sink)

	require.NoError(t, s.ToggleSticky(Alt))
	require.NoError(t, s.ToggleSticky(Alt))
	sink.Reset()

	require.NoError(t, s.Release())
	assert.Empty(t, sink.Events())
}

func TestAltUpAtMostOncePerDown(t *testing.T) {
	sink := &platformtest.Sink{}
	s := New(sink)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.ToggleSticky(Alt))
	}
	require.NoError(t, s.Release())
	require.NoError(t, s.Release())

	downs := sink.Count(keys.Alt, false)
	ups := sink.Count(keys.Alt, true)
	assert.Equal(t, 3, downs)
	assert.Equal(t, downs, ups)
}

func TestObservePhysicalLeavesStickyAlone(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.ToggleSticky(Ctrl))

	s.ObservePhysical(Ctrl, true)
	assert.True(t, s.Held(Ctrl))
	assert.True(t, s.Sticky(Ctrl))

	s.ObservePhysical(Ctrl, false)
	assert.True(t, s.Effective(Ctrl))

	s.ObservePhysical(Meta, true)
	assert.True(t, s.Effective(Meta))
	assert.False(t, s.Sticky(Meta))
}

func TestClearOneShotKeepsAltLock(t *testing.T) {
	s := New(&platformtest.Sink{})
	for _, m := range All {
		require.NoError(t, s.ToggleSticky(m))
	}
	s.ClearOneShot()

	assert.False(t, s.Sticky(Shift))
	assert.False(t, s.Sticky(Ctrl))
	assert.False(t, s.Sticky(Meta))
	assert.True(t, s.Sticky(Alt))
}

func TestSendFailureStillFlips(t *testing.T) {
	sink := &platformtest.Sink{Err: errors.New("denied")}
	s := New(sink)

	err := s.ToggleSticky(Alt)
	assert.Error(t, err)
	assert.True(t, s.Sticky(Alt))
}

func TestFromCode(t *testing.T) {
	m, ok := FromCode(keys.Control)
	require.True(t, ok)
	assert.Equal(t, Ctrl, m)

	_, ok = FromCode(keys.A)
	assert.False(t, ok)
}
