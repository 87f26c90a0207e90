package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteKVRepository implements KVRepository on the kv_store table.
type SQLiteKVRepository struct {
	db *sql.DB
}

func NewSQLiteKVRepository(db *sql.DB) *SQLiteKVRepository {
	return &SQLiteKVRepository{db: db}
}

func (r *SQLiteKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return []byte(value), nil
}

func (r *SQLiteKVRepository) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteKVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------
// SQLiteEventRepository
// ---------------------------------------------------------

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payload := string(event.Payload)
	if payload == "" {
		payload = "null"
	}

	query := `
		INSERT INTO events (id, timestamp, event_type, actor_id, tick, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Timestamp.UTC().Format(time.RFC3339Nano), event.EventType,
		event.ActorID, event.Tick, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	query := `SELECT id, timestamp, event_type, actor_id, tick, payload FROM events ORDER BY seq DESC LIMIT ?`
	return r.getMany(ctx, query, limitOrAll(limit))
}

func (r *SQLiteEventRepository) ByType(ctx context.Context, eventType string, limit int) ([]StoredEvent, error) {
	query := `SELECT id, timestamp, event_type, actor_id, tick, payload FROM events WHERE event_type = ? ORDER BY seq DESC LIMIT ?`
	return r.getMany(ctx, query, eventType, limitOrAll(limit))
}

func (r *SQLiteEventRepository) RecentExcept(ctx context.Context, excludeType string, limit int) ([]StoredEvent, error) {
	query := `SELECT id, timestamp, event_type, actor_id, tick, payload FROM events WHERE event_type <> ? ORDER BY seq DESC LIMIT ?`
	return r.getMany(ctx, query, excludeType, limitOrAll(limit))
}

func (r *SQLiteEventRepository) ByID(ctx context.Context, id string) (StoredEvent, error) {
	query := `SELECT id, timestamp, event_type, actor_id, tick, payload FROM events WHERE id = ? LIMIT 1`
	events, err := r.getMany(ctx, query, id)
	if err != nil {
		return StoredEvent{}, err
	}
	if len(events) == 0 {
		return StoredEvent{}, ErrNotFound
	}
	return events[0], nil
}

func (r *SQLiteEventRepository) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[eventType] = n
	}
	return counts, rows.Err()
}

// getMany scans newest-first rows and returns them oldest first.
func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var ts, payload string
		if err := rows.Scan(&e.ID, &ts, &e.EventType, &e.ActorID, &e.Tick, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp %q: %w", ts, err)
		}
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// Ensure the SQLite repositories implement their interfaces
var (
	_ KVRepository    = (*SQLiteKVRepository)(nil)
	_ EventRepository = (*SQLiteEventRepository)(nil)
)
