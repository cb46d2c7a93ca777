package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/securekey/authcore/pkg/logger"
)

// AsyncOptions tunes AsyncWriter batching.
type AsyncOptions struct {
	BufferSize     int
	BatchSize      int
	BatchTimeout   time.Duration
	StorageTimeout time.Duration
	Logger         *slog.Logger
}

func (o *AsyncOptions) setDefaults() {
	if o.BufferSize <= 0 {
		o.BufferSize = 1000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 100 * time.Millisecond
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
}

// AsyncWriter queues events and writes them in batches from a single goroutine.
// Store returns once the event is queued. A full buffer falls back to a synchronous write.
type AsyncWriter struct {
	bw   BatchWriter
	opts AsyncOptions

	events chan Event
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncWriter starts the batching goroutine. Call Close to flush and stop it.
func NewAsyncWriter(bw BatchWriter, opts AsyncOptions) *AsyncWriter {
	if bw == nil {
		panic("audit: batch writer cannot be nil")
	}
	opts.setDefaults()

	w := &AsyncWriter{
		bw:     bw,
		opts:   opts,
		events: make(chan Event, opts.BufferSize),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) Store(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrStorageNotAvailable
	}

	select {
	case w.events <- event:
		return nil
	default:
		return w.bw.StoreBatch(ctx, []Event{event})
	}
}

func (w *AsyncWriter) run() {
	defer close(w.done)

	batch := make([]Event, 0, w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.StorageTimeout)
		defer cancel()
		if err := w.bw.StoreBatch(ctx, batch); err != nil {
			w.opts.Logger.ErrorContext(ctx, "failed to store audit events",
				logger.Component("audit"),
				slog.Int("events", len(batch)),
				logger.Error(err),
			)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-w.events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= w.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
