package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-intake/internal/domain"
	"github.com/spec-kit/helpdesk-intake/internal/service"
)

// IntakeEmailRequest is the relay's inbound email payload.
type IntakeEmailRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	RequesterEmail string `json:"requester_email"`
	RequesterName  string `json:"requester_name"`
	BusinessKey    string `json:"business_key"`
	ReceivedAt     string `json:"received_at"`
	MessageID      string `json:"message_id"`
}

// ToEvent converts the payload. An unparseable received_at is dropped rather than rejected.
func (r IntakeEmailRequest) ToEvent() domain.InboundEvent {
	evt := domain.InboundEvent{
		MessageID:      r.MessageID,
		Title:          r.Title,
		Content:        r.Content,
		RequesterEmail: r.RequesterEmail,
		RequesterName:  r.RequesterName,
		BusinessKey:    r.BusinessKey,
	}
	if raw := strings.TrimSpace(r.ReceivedAt); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			ts = ts.UTC()
			evt.ReceivedAt = &ts
		}
	}
	return evt
}

// IntakeReceiptResponse acknowledges a delivery.
type IntakeReceiptResponse struct {
	TicketID string              `json:"ticket_id"`
	Status   domain.TicketStatus `json:"status"`
	Source   domain.TicketSource `json:"source"`
}

// NewIntakeReceiptResponse maps a receipt. Duplicate deliveries produce the same body.
func NewIntakeReceiptResponse(r *service.IntakeReceipt) IntakeReceiptResponse {
	return IntakeReceiptResponse{TicketID: r.TicketID, Status: r.Status, Source: r.Source}
}
