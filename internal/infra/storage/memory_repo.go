package storage

import (
	"context"
	"sync"
)

// MemoryKVRepository is a process-local KVRepository.
type MemoryKVRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{values: make(map[string][]byte)}
}

func (r *MemoryKVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *MemoryKVRepository) Put(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	r.values[key] = v
	return nil
}

func (r *MemoryKVRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

var _ KVRepository = (*MemoryKVRepository)(nil)

// MemoryEventRepository is a process-local EventRepository.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []StoredEvent
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{}
}

func (r *MemoryEventRepository) Append(ctx context.Context, event StoredEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *MemoryEventRepository) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	return r.newest(limit, func(StoredEvent) bool { return true }), nil
}

func (r *MemoryEventRepository) ByType(ctx context.Context, eventType string, limit int) ([]StoredEvent, error) {
	return r.newest(limit, func(e StoredEvent) bool { return e.EventType == eventType }), nil
}

func (r *MemoryEventRepository) RecentExcept(ctx context.Context, excludeType string, limit int) ([]StoredEvent, error) {
	return r.newest(limit, func(e StoredEvent) bool { return e.EventType != excludeType }), nil
}

func (r *MemoryEventRepository) ByID(ctx context.Context, id string) (StoredEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return StoredEvent{}, ErrNotFound
}

func (r *MemoryEventRepository) CountByType(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range r.events {
		counts[e.EventType]++
	}
	return counts, nil
}

// newest returns up to limit matching events, oldest first.
func (r *MemoryEventRepository) newest(limit int, keep func(StoredEvent) bool) []StoredEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []StoredEvent
	for i := len(r.events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if keep(r.events[i]) {
			out = append(out, r.events[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

var _ EventRepository = (*MemoryEventRepository)(nil)
