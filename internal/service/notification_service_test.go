package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk-intake/internal/events"
)

type captureSink struct {
	events []events.Event
}

func (c *captureSink) Send(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestNotificationServiceForwardsTicketEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	sink := &captureSink{}
	NewNotificationService(dispatcher, sink, nil).RegisterHandlers()

	for _, typ := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketOwnerChanged,
	} {
		_ = dispatcher.Publish(context.Background(), events.Event{Type: typ, TicketID: "t-1"})
	}
	if len(sink.events) != 3 {
		t.Fatalf("forwarded = %d, want 3", len(sink.events))
	}
}
