package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osk/internal/actions"
)

func TestMenuShowInvalidates(t *testing.T) {
	redraws := 0
	m := NewMenu(nil, func(actions.Item) {}, func() { redraws++ })
	assert.False(t, m.IsOpen())

	m.Show()
	assert.True(t, m.IsOpen())
	assert.Equal(t, 1, redraws)

	m.Close()
	assert.False(t, m.IsOpen())
}

func TestMenuListsEveryItem(t *testing.T) {
	m := NewMenu(nil, nil, nil)
	assert.Equal(t, actions.MenuItems, m.items)
	assert.Len(t, m.buttons, len(actions.MenuItems))
	assert.Equal(t, actions.Cancel, m.items[len(m.items)-1])
}
