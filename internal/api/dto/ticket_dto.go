package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// ChangeOwnerRequest payload. A null owner_id clears the owner.
type ChangeOwnerRequest struct {
	OwnerID *string `json:"owner_id"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID                string              `json:"id"`
	ExternalMessageID *string             `json:"external_message_id,omitempty"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Status            domain.TicketStatus `json:"status"`
	Source            domain.TicketSource `json:"source"`
	CreatorID         *string             `json:"creator_id"`
	OwnerID           *string             `json:"owner_id"`
	RequesterEmail    string              `json:"requester_email,omitempty"`
	RequesterName     string              `json:"requester_name,omitempty"`
	BusinessKey       string              `json:"business_key,omitempty"`
	ReceivedAt        *time.Time          `json:"received_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		ExternalMessageID: t.ExternalMessageID,
		Title:             t.Title,
		Description:       t.Description,
		Status:            t.Status,
		Source:            t.Source,
		CreatorID:         t.CreatorID,
		OwnerID:           t.OwnerID,
		RequesterEmail:    t.RequesterEmail,
		RequesterName:     t.RequesterName,
		BusinessKey:       t.BusinessKey,
		ReceivedAt:        t.ReceivedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID          string                  `json:"id"`
	ChangedByID *string                 `json:"changed_by_id"`
	ChangeType  domain.TicketChangeType `json:"change_type"`
	OldValue    map[string]any          `json:"old_value"`
	NewValue    map[string]any          `json:"new_value"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NewTicketHistoryResponse maps audit entries.
func NewTicketHistoryResponse(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:          e.ID,
			ChangedByID: e.ChangedByID,
			ChangeType:  e.ChangeType,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
