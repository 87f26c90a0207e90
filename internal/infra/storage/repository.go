// Package storage provides the persistence layer for the pet server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: not found")

// KVRepository stores opaque values under string keys.
// It is the server-side stand-in for the browser's origin-scoped local storage.
type KVRepository interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// StoredEvent mirrors the domain event structure for persistence.
type StoredEvent struct {
	ID        string          `json:"id" db:"id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	ActorID   string          `json:"actor_id" db:"actor_id"`
	Tick      int64           `json:"tick" db:"tick"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event StoredEvent) error

	// Recent returns up to limit of the newest events, oldest first.
	Recent(ctx context.Context, limit int) ([]StoredEvent, error)

	// ByType returns up to limit of the newest events of one type, oldest first.
	ByType(ctx context.Context, eventType string, limit int) ([]StoredEvent, error)

	// RecentExcept is Recent with every event of excludeType left out.
	RecentExcept(ctx context.Context, excludeType string, limit int) ([]StoredEvent, error)

	// ByID returns one event, or ErrNotFound.
	ByID(ctx context.Context, id string) (StoredEvent, error)

	// CountByType returns how many events of each type the ledger holds.
	CountByType(ctx context.Context) (map[string]int, error)
}
