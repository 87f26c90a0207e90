// Package events provides the append-only ledger of everything that happened to the monster.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeSessionStart   EventType = "SESSION_START"
	EventTypeFeed           EventType = "FEED"
	EventTypePlay           EventType = "PLAY"
	EventTypeClean          EventType = "CLEAN"
	EventTypeTrain          EventType = "TRAIN"
	EventTypeActionRejected EventType = "ACTION_REJECTED"
	EventTypeTimeTick       EventType = "TIME_TICK"
	EventTypeLevelUp        EventType = "LEVEL_UP"
	EventTypeGameOver       EventType = "GAME_OVER"
	EventTypeManualSave     EventType = "MANUAL_SAVE"
)

// ActorPlayer and ActorSystem are the two sources of events.
const (
	ActorPlayer = "PLAYER"
	ActorSystem = "SYSTEM_TICK"
)

// GameEvent represents an immutable record of something that happened.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Tick      int64       `json:"tick"`    // decay ticks applied so far
	Payload   interface{} `json:"payload"` // Event-specific data
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of simulation events.
// Only the most recent events are retained in memory; the persister keeps the rest.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	retention int
	persister EventPersister
	onError   func(error)
}

// NewEventLog creates a new event log with an optional persister.
// retention <= 0 keeps every event.
func NewEventLog(persister EventPersister, retention int) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		retention: retention,
		persister: persister,
	}
}

// OnPersistError registers a callback for failed write-throughs.
func (el *EventLog) OnPersistError(fn func(error)) {
	el.mu.Lock()
	el.onError = fn
	el.mu.Unlock()
}

// Append adds a new event to the log, filling in ID and Timestamp when empty.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	if el.retention > 0 && len(el.events) > el.retention {
		trimmed := make([]GameEvent, el.retention)
		copy(trimmed, el.events[len(el.events)-el.retention:])
		el.events = trimmed
	}
	persister, onError := el.persister, el.onError
	el.mu.Unlock()

	// Write through outside the lock so a slow disk never blocks readers.
	if persister != nil {
		if err := persister.Append(event); err != nil && onError != nil {
			onError(err)
		}
	}
	return event
}

// GetByType returns the retained events of one type.
func (el *EventLog) GetByType(eventType EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// Recent returns up to n of the newest events, oldest first.
func (el *EventLog) Recent(n int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	start := 0
	if n > 0 && len(el.events) > n {
		start = len(el.events) - n
	}
	out := make([]GameEvent, len(el.events)-start)
	copy(out, el.events[start:])
	return out
}

// Replay returns a copy of every retained event.
func (el *EventLog) Replay() []GameEvent {
	return el.Recent(0)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
