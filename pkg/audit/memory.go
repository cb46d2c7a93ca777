package audit

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMemoryCapacity bounds MemoryStorage when no capacity is given.
const DefaultMemoryCapacity = 10000

// Criteria filters Query results. Zero fields match everything.
type Criteria struct {
	AccountID uuid.UUID
	Actions   []Action
	Since     time.Time
	Limit     int
}

// Match reports whether e satisfies the criteria, ignoring Limit.
func (c Criteria) Match(e Event) bool {
	if c.AccountID != uuid.Nil && e.AccountID != c.AccountID {
		return false
	}
	if len(c.Actions) > 0 && !slices.Contains(c.Actions, e.Action) {
		return false
	}
	if !c.Since.IsZero() && e.CreatedAt.Before(c.Since) {
		return false
	}
	return true
}

// MemoryStorage keeps the most recent events in process memory.
// When full, the oldest event is dropped.
type MemoryStorage struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
}

func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStorage{capacity: capacity}
}

func (m *MemoryStorage) Store(ctx context.Context, event Event) error {
	return m.StoreBatch(ctx, []Event{event})
}

func (m *MemoryStorage) StoreBatch(ctx context.Context, events []Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	if over := len(m.events) - m.capacity; over > 0 {
		m.events = slices.Delete(m.events, 0, over)
	}
	return nil
}

// Query returns matching events, newest first.
func (m *MemoryStorage) Query(ctx context.Context, c Criteria) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for i := len(m.events) - 1; i >= 0; i-- {
		if !c.Match(m.events[i]) {
			continue
		}
		out = append(out, m.events[i])
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of retained events.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}
