package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// BatchWriter stores many events in one round trip.
type BatchWriter interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// Querier reads stored events, newest first.
type Querier interface {
	Query(ctx context.Context, c Criteria) ([]Event, error)
}

// Recorder builds events and writes them to a Storage.
type Recorder struct {
	storage Storage
	now     func() time.Time
}

type Option func(*Recorder)

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder panics when storage is nil.
func NewRecorder(storage Storage, opts ...Option) *Recorder {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	r := &Recorder{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores one event. Result defaults to ResultSuccess.
func (r *Recorder) Record(ctx context.Context, action Action, opts ...EventOption) error {
	event := Event{
		ID:        uuid.New(),
		Action:    action,
		Result:    ResultSuccess,
		CreatedAt: r.now().UTC(),
	}
	for _, opt := range opts {
		opt(&event)
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return r.storage.Store(ctx, event)
}
