package events

import (
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketOwnerChanged  EventType = "ticket_owner_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	ID     string            `json:"id"`
	Role   domain.Role       `json:"role,omitempty"`
	Method domain.AuthMethod `json:"method"`
}

// ActorFrom converts a request identity into event metadata.
func ActorFrom(identity *domain.Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	return Actor{ID: identity.ID, Role: identity.Role, Method: identity.Method}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title             string              `json:"title"`
	Source            domain.TicketSource `json:"source"`
	ExternalMessageID *string             `json:"external_message_id,omitempty"`
	CreatorID         *string             `json:"creator_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketOwnerChangedPayload payload.
type TicketOwnerChangedPayload struct {
	OldOwnerID *string `json:"old_owner_id,omitempty"`
	NewOwnerID *string `json:"new_owner_id,omitempty"`
}
