package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetEvents(t *testing.T) {
	t.Helper()
	_ = EventShutdown()
	require.True(t, EventInitialize())
	t.Cleanup(func() { _ = EventShutdown() })
}

func TestEventFireDeliversResize(t *testing.T) {
	resetEvents(t)

	var gotW, gotH uint32
	onResize := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		gotW, gotH = data.Data.U32[0], data.Data.U32[1]
		return true
	}
	require.True(t, EventRegister(EVENT_CODE_RESIZED, "renderer", onResize))
	assert.False(t, EventRegister(EVENT_CODE_RESIZED, "renderer", onResize), "duplicate registration")

	ctx := EventContext{}
	ctx.Data.U32[0], ctx.Data.U32[1] = 800, 600
	assert.True(t, EventFire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, uint32(800), gotW)
	assert.Equal(t, uint32(600), gotH)

	assert.False(t, EventFire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
}

func TestEventHandledStopsPropagation(t *testing.T) {
	resetEvents(t)

	calls := 0
	first := func(SystemEventCode, interface{}, interface{}, EventContext) bool { calls++; return true }
	second := func(SystemEventCode, interface{}, interface{}, EventContext) bool { calls++; return false }
	require.True(t, EventRegister(EVENT_CODE_APPLICATION_QUIT, 1, first))
	require.True(t, EventRegister(EVENT_CODE_APPLICATION_QUIT, 2, second))

	EventFire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{})
	assert.Equal(t, 1, calls)

	require.True(t, EventUnregister(EVENT_CODE_APPLICATION_QUIT, 1, first))
	EventFire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{})
	assert.Equal(t, 2, calls)
	assert.False(t, EventUnregister(EVENT_CODE_APPLICATION_QUIT, 1, first))
}
