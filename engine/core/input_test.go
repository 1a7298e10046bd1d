package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputKeyTransitions(t *testing.T) {
	resetEvents(t)
	require.NoError(t, InputInitialize())
	t.Cleanup(func() { _ = InputShutdown() })

	var pressed []uint32
	onKey := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		pressed = append(pressed, data.Data.U32[0])
		return false
	}
	require.True(t, EventRegister(EVENT_CODE_KEY_PRESSED, nil, onKey))

	InputProcessKey(KEY_SPACE, true)
	InputProcessKey(KEY_SPACE, true)
	assert.True(t, InputIsKeyDown(KEY_SPACE))
	assert.True(t, InputKeyPressed(KEY_SPACE))
	assert.Equal(t, []uint32{uint32(KEY_SPACE)}, pressed)

	InputUpdate()
	assert.True(t, InputIsKeyDown(KEY_SPACE))
	assert.False(t, InputKeyPressed(KEY_SPACE))

	InputProcessKey(KEY_SPACE, false)
	assert.False(t, InputIsKeyDown(KEY_SPACE))
	assert.True(t, InputWasKeyDown(KEY_SPACE))
	assert.False(t, InputIsKeyDown(KEYS_MAX_KEYS))
}
