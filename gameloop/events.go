package gameloop

import (
	"sync"
	"time"
)

// EventKind identifies the type of session event.
type EventKind string

const (
	EventSessionStart    EventKind = "session_start"
	EventSessionEnd      EventKind = "session_end"
	EventLoopTick        EventKind = "loop_tick"
	EventResponse        EventKind = "response_received"
	EventInputs          EventKind = "inputs_generated"
	EventNotesChanged    EventKind = "notes_changed"
	EventTurnScored      EventKind = "turn_scored"
	EventStuckWarning    EventKind = "stuck_warning"
	EventError           EventKind = "error"
	EventCriticalError   EventKind = "critical_error"
	EventSearchRequested EventKind = "search_requested"
)

// SessionEvent is a typed event emitted by the game loop. Recoverable
// errors arrive as EventError; EventCriticalError is the terminal
// channel and is always followed by the loop halting.
type SessionEvent struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventEmitter delivers typed events to the host application via a
// buffered channel. Events are dropped rather than blocking the loop.
type EventEmitter struct {
	sessionID string
	ch        chan SessionEvent
	closed    bool
	mu        sync.Mutex
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(sessionID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{
		sessionID: sessionID,
		ch:        make(chan SessionEvent, bufferSize),
	}
}

// Emit sends an event. If the emitter is closed the event is silently
// dropped.
func (e *EventEmitter) Emit(kind EventKind, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := SessionEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
		// Channel full; drop rather than stall the control loop.
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan SessionEvent {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
