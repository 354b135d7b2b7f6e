package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeCreated TicketChangeType = "CREATED"
	ChangeTypeStatus  TicketChangeType = "STATUS_CHANGE"
	ChangeTypeOwner   TicketChangeType = "OWNER_CHANGE"
)

// TicketHistory is an immutable audit trail entry. Values hold only the fields that
// changed, keyed by field name.
type TicketHistory struct {
	ID          string
	TicketID    string
	ChangedByID *string
	ChangeType  TicketChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}

// NewTicketHistory stamps an entry for ticketID made by actor. A nil actor leaves
// ChangedByID empty.
func NewTicketHistory(id, ticketID string, actor *Identity, change TicketChangeType, oldValue, newValue map[string]any) *TicketHistory {
	entry := &TicketHistory{
		ID:         id,
		TicketID:   ticketID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  time.Now().UTC(),
	}
	if actor != nil {
		actorID := actor.ID
		entry.ChangedByID = &actorID
	}
	return entry
}
