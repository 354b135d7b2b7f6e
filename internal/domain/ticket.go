package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusOnHold     TicketStatus = "on_hold"
	TicketStatusCompleted  TicketStatus = "completed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// TicketSource records how a ticket entered the system.
type TicketSource string

const (
	TicketSourceInteractive TicketSource = "interactive"
	TicketSourceEmail       TicketSource = "email"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                string
	ExternalMessageID *string
	Title             string
	Description       string
	Status            TicketStatus
	Source            TicketSource
	CreatorID         *string
	OwnerID           *string
	RequesterEmail    string
	RequesterName     string
	BusinessKey       string
	ReceivedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewTicket builds a ticket in its initial state. Every ticket starts open.
func NewTicket(id string, source TicketSource, title, description string) *Ticket {
	now := time.Now().UTC()
	return &Ticket{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      TicketStatusOpen,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// completed -> open is the reopen edge and needs elevated privilege.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusOnHold, TicketStatusOpen},
	TicketStatusOnHold:     {TicketStatusCompleted, TicketStatusInProgress},
	TicketStatusCompleted:  {TicketStatusOpen},
}

// CanTransition reports whether next is reachable from current in one step.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsReopen reports whether the edge leaves the terminal state.
func IsReopen(current, next TicketStatus) bool {
	return current == TicketStatusCompleted && next != TicketStatusCompleted
}
