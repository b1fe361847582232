package core

import "sync"

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// The bindless acceleration-structure table grew.
	/* Context usage:
	 * data = *TableResizedEvent
	 */
	EVENT_CODE_ACCEL_TABLE_RESIZED SystemEventCode = 0x02

	// A scene description file changed on disk and was re-staged.
	/* Context usage:
	 * data = *SceneChangedEvent
	 */
	EVENT_CODE_SCENE_CHANGED SystemEventCode = 0x03

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * data = SystemEvent
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type TableResizedEvent struct {
	OldLength uint32
	NewLength uint32
}

type SceneChangedEvent struct {
	Path string
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

// Callback invoked for each fired event the listener registered for.
type FnOnEvent func(context EventContext)

type registeredEvent struct {
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// State structure.
type eventSystemState struct {
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES]eventCodeEntry
	queue      chan EventContext
	done       chan struct{}
	mutex      sync.RWMutex
}

/**
 * Event system internal state.
 */
var isInitialized bool = false
var eventState *eventSystemState = nil

// EventSystemInitialize builds a fresh state every time, so the system can be
// brought up again after a shutdown within the same process.
func EventSystemInitialize() bool {
	if isInitialized {
		return false
	}
	eventState = &eventSystemState{
		queue: make(chan EventContext, 256),
		done:  make(chan struct{}),
	}
	isInitialized = true
	return true
}

func EventSystemShutdown() error {
	if !isInitialized {
		return nil
	}
	close(eventState.done)
	eventState.mutex.Lock()
	for i := 0; i < MAX_MESSAGE_CODES; i++ {
		if len(eventState.registered[i].events) != 0 {
			eventState.registered[i].events = nil
		}
	}
	eventState.mutex.Unlock()
	isInitialized = false
	return nil
}

// EventRegister registers to listen for when events are sent with the provided code.
func EventRegister(code SystemEventCode, onEvent FnOnEvent) bool {
	if !isInitialized {
		return false
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()

	event := &registeredEvent{
		callback: onEvent,
	}
	eventState.registered[code].events = append(eventState.registered[code].events, event)
	return true
}

// EventFire queues an event for all listeners of the given code. Delivery
// happens on the ProcessEvents goroutine, never on the firing one.
func EventFire(context EventContext) bool {
	if !isInitialized {
		return false
	}
	select {
	case eventState.queue <- context:
		return true
	default:
		LogWarn("event queue full, dropping event code `%d`", context.Type)
		return false
	}
}

// ProcessEvents drains the event queue until the system shuts down.
// Run it on its own goroutine. The state is captured once so a later
// re-initialization spins up its own drain goroutine instead of
// resurrecting this one.
func ProcessEvents() {
	state := eventState
	for {
		select {
		case <-state.done:
			return
		case context := <-state.queue:
			state.mutex.RLock()
			listeners := state.registered[context.Type].events
			state.mutex.RUnlock()
			for _, e := range listeners {
				e.callback(context)
			}
		}
	}
}
