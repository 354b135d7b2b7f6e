package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/events"
)

var (
	ErrRelayClosed = errors.New("event relay closed")
	ErrQueueFull   = errors.New("event relay queue full")
)

// Sink delivers one event outside the process.
type Sink interface {
	Send(ctx context.Context, event events.Event) error
}

// EventRelay hands ticket events to a sink from a single background goroutine, so a slow
// or unreachable broker never holds up a request. Events are dropped when the queue is full.
type EventRelay struct {
	sink    Sink
	queue   chan events.Event
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

// StartEventRelay creates a relay with room for size pending events and starts delivering.
// Each delivery is bounded by timeout.
func StartEventRelay(sink Sink, size int, timeout time.Duration, logger *zap.Logger) *EventRelay {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &EventRelay{
		sink:    sink,
		queue:   make(chan events.Event, size),
		timeout: timeout,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Send enqueues event without blocking.
func (r *EventRelay) Send(_ context.Context, event events.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	select {
	case r.queue <- event:
		return nil
	default:
		r.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped reports how many events were rejected because the queue was full.
func (r *EventRelay) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits until the queue is drained or ctx ends.
func (r *EventRelay) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *EventRelay) run() {
	defer close(r.done)
	for event := range r.queue {
		r.deliver(event)
	}
}

func (r *EventRelay) deliver(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.sink.Send(ctx, event); err != nil {
		r.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
