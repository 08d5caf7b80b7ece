package actions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/keys"
	"osk/internal/logging"
	"osk/internal/platform"
	"osk/internal/platform/platformtest"
)

type launches struct {
	names []string
	fail  bool
}

func (l *launches) launch(name string, args ...string) error {
	l.names = append(l.names, name)
	if l.fail {
		return errors.New("not found")
	}
	return nil
}

func TestTaskManagerLaunches(t *testing.T) {
	sink := &platformtest.Sink{}
	l := &launches{}
	a := New(sink, l.launch, logging.Discard())

	require.NoError(t, a.OpenTaskManager())
	assert.Len(t, l.names, 1)
	assert.Empty(t, sink.Events())
}

func TestTaskManagerFallsBackToChord(t *testing.T) {
	sink := &platformtest.Sink{}
	l := &launches{fail: true}
	a := New(sink, l.launch, logging.Discard())

	require.NoError(t, a.OpenTaskManager())
	assert.Equal(t, []platform.KeyEvent{
		platform.Down(keys.Control),
		platform.Down(keys.Shift),
		platform.Down(keys.Escape),
		platform.Up(keys.Escape),
		platform.Up(keys.Shift),
		platform.Up(keys.Control),
	}, sink.Events())
}

func TestTaskManagerAllStepsFail(t *testing.T) {
	sink := &platformtest.Sink{Err: errors.New("blocked")}
	a := New(sink, (&launches{fail: true}).launch, logging.Discard())
	err := a.OpenTaskManager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestCancelDoesNothing(t *testing.T) {
	l := &launches{}
	a := New(&platformtest.Sink{}, l.launch, logging.Discard())
	assert.NoError(t, a.Run(Cancel))
	assert.Empty(t, l.names)
}

func TestSecurityMenu(t *testing.T) {
	a := New(nil, nil, logging.Discard())
	a.ShowSecurityMenu()

	opened := 0
	a.SetSecurityMenu(func() { opened++ })
	a.ShowSecurityMenu()
	assert.Equal(t, 1, opened)
}

func TestMenuLabels(t *testing.T) {
	require.Len(t, MenuItems, 6)
	assert.Equal(t, "工作管理員", TaskManager.Label())
	assert.Equal(t, "取消", Cancel.Label())
	assert.Equal(t, "switch-user", SwitchUser.String())
}
