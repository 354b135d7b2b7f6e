package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/events"
)

// EventSink receives ticket events leaving the process.
type EventSink interface {
	Send(ctx context.Context, event events.Event) error
}

// NotificationService forwards domain events to the outbound sink.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       EventSink
	logger     *zap.Logger
}

// NewNotificationService creates the service. sink may be nil, in which case events are
// only logged.
func NewNotificationService(dispatcher events.Dispatcher, sink EventSink, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.forward)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.forward)
	n.dispatcher.Subscribe(events.EventTicketOwnerChanged, n.forward)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID))
	if n.sink == nil {
		return nil
	}
	return n.sink.Send(ctx, event)
}
