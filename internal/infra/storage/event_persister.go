package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/events"
)

// EventPersister writes events.GameEvent values through to an EventRepository.
type EventPersister struct {
	repo    EventRepository
	timeout time.Duration
}

// NewEventPersister returns a persister bounding every write by timeout.
func NewEventPersister(repo EventRepository, timeout time.Duration) *EventPersister {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &EventPersister{repo: repo, timeout: timeout}
}

// Append implements events.EventPersister.
func (p *EventPersister) Append(e events.GameEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", e.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.repo.Append(ctx, StoredEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		ActorID:   e.ActorID,
		Tick:      e.Tick,
		Payload:   payload,
	})
}

var _ events.EventPersister = (*EventPersister)(nil)
