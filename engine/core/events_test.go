package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegisterRequiresInitialize(t *testing.T) {
	if isInitialized {
		t.Skip("event system already initialized by another test")
	}
	assert.False(t, EventRegister(EVENT_CODE_RESIZED, func(EventContext) {}))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED}))
}

func TestEventDelivery(t *testing.T) {
	require.True(t, EventSystemInitialize())
	defer EventSystemShutdown()
	go ProcessEvents()

	received := make(chan EventContext, 1)
	require.True(t, EventRegister(EVENT_CODE_ACCEL_TABLE_RESIZED, func(context EventContext) {
		received <- context
	}))

	require.True(t, EventFire(EventContext{
		Type: EVENT_CODE_ACCEL_TABLE_RESIZED,
		Data: &TableResizedEvent{OldLength: 16, NewLength: 32},
	}))

	select {
	case context := <-received:
		event, ok := context.Data.(*TableResizedEvent)
		require.True(t, ok)
		assert.Equal(t, uint32(16), event.OldLength)
		assert.Equal(t, uint32(32), event.NewLength)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

// A second initialize/shutdown lifecycle in the same process must deliver
// events again with fresh state.
func TestEventSystemRestart(t *testing.T) {
	if isInitialized {
		require.NoError(t, EventSystemShutdown())
	}
	require.True(t, EventSystemInitialize())
	require.NoError(t, EventSystemShutdown())

	require.True(t, EventSystemInitialize())
	defer EventSystemShutdown()
	go ProcessEvents()

	received := make(chan struct{}, 1)
	require.True(t, EventRegister(EVENT_CODE_SCENE_CHANGED, func(EventContext) {
		received <- struct{}{}
	}))
	require.True(t, EventFire(EventContext{
		Type: EVENT_CODE_SCENE_CHANGED,
		Data: &SceneChangedEvent{Path: "scenes/demo.toml"},
	}))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("event was not delivered after re-initialization")
	}
}

func TestClockElapsed(t *testing.T) {
	clock := NewClock()

	// Non-started clocks never accumulate time.
	clock.Update()
	assert.Zero(t, clock.Elapsed())

	clock.Start()
	time.Sleep(5 * time.Millisecond)
	clock.Update()
	first := clock.Elapsed()
	assert.Greater(t, first, 0.0)

	time.Sleep(5 * time.Millisecond)
	clock.Update()
	assert.GreaterOrEqual(t, clock.Elapsed(), first)

	clock.Stop()
	stopped := clock.Elapsed()
	clock.Update()
	assert.Equal(t, stopped, clock.Elapsed())
}
