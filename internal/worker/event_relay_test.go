package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/events"
)

type recordingSink struct {
	mu     sync.Mutex
	seen   []string
	block  chan struct{}
	failOn string
}

func (s *recordingSink) Send(_ context.Context, event events.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, event.TicketID)
	if event.TicketID == s.failOn {
		return errors.New("broker unavailable")
	}
	return nil
}

func (s *recordingSink) ticketIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func TestEventRelayDeliversInOrderAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{failOn: "t-2"}
	relay := StartEventRelay(sink, 8, time.Second, nil)

	for _, id := range []string{"t-1", "t-2", "t-3"} {
		if err := relay.Send(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: id}); err != nil {
			t.Fatalf("send %s: %v", id, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := relay.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := sink.ticketIDs()
	if len(got) != 3 || got[0] != "t-1" || got[2] != "t-3" {
		t.Fatalf("delivered = %v", got)
	}
	if err := relay.Send(context.Background(), events.Event{TicketID: "late"}); !errors.Is(err, ErrRelayClosed) {
		t.Fatalf("expected ErrRelayClosed, got %v", err)
	}
}

func TestEventRelayDropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	relay := StartEventRelay(sink, 1, time.Second, nil)

	// The first event is picked up by the delivery goroutine and blocks in the sink.
	if err := relay.Send(context.Background(), events.Event{TicketID: "t-1"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	var full bool
	for time.Now().Before(deadline) {
		if err := relay.Send(context.Background(), events.Event{TicketID: "t-n"}); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !full {
		t.Fatalf("queue never reported full")
	}
	if relay.Dropped() == 0 {
		t.Fatalf("expected dropped counter to move")
	}

	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := relay.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
