package imbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osk/internal/platform"
)

func TestFcitxNative(t *testing.T) {
	native, err := FcitxNative(fcitxActive)
	require.NoError(t, err)
	assert.True(t, native)

	native, err = FcitxNative(fcitxInactive)
	require.NoError(t, err)
	assert.False(t, native)

	_, err = FcitxNative(fcitxClosed)
	assert.ErrorIs(t, err, platform.ErrUnavailable)
}

func TestIBusNative(t *testing.T) {
	tests := []struct {
		engine string
		native bool
	}{
		{"xkb:us::eng", false},
		{"xkb:tw::chi", false},
		{"chewing", true},
		{"libpinyin", true},
		{"table:cangjie5", true},
	}
	for _, tt := range tests {
		native, err := IBusNative(tt.engine)
		require.NoError(t, err, tt.engine)
		assert.Equal(t, tt.native, native, tt.engine)
	}

	_, err := IBusNative("")
	assert.ErrorIs(t, err, platform.ErrUnavailable)
}

func TestEngineName(t *testing.T) {
	desc := []interface{}{"IBusEngineDesc", map[string]dbus.Variant{}, "chewing", "Chewing", "Chinese"}

	name, ok := EngineName(desc)
	require.True(t, ok)
	assert.Equal(t, "chewing", name)

	name, ok = EngineName(dbus.MakeVariant(dbus.MakeVariant(desc)))
	require.True(t, ok)
	assert.Equal(t, "chewing", name)

	_, ok = EngineName([]interface{}{"IBusText", map[string]dbus.Variant{}, "x"})
	assert.False(t, ok)
	_, ok = EngineName("chewing")
	assert.False(t, ok)
	_, ok = EngineName([]interface{}{"IBusEngineDesc"})
	assert.False(t, ok)
}

func TestOpenRejectsUnknownProvider(t *testing.T) {
	_, err := Open("scim", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoProvider)
}
