package domain

import "time"

// ClaimState tracks a dedup record from first sight to completion.
type ClaimState string

const (
	ClaimStateInFlight  ClaimState = "in_flight"
	ClaimStateCompleted ClaimState = "completed"
)

// DedupRecord maps an external message identifier to the ticket it produced.
type DedupRecord struct {
	ExternalID  string
	TicketID    *string
	State       ClaimState
	ClaimedAt   time.Time
	CompletedAt *time.Time
}

// Completed reports whether the record points at a persisted ticket.
func (r *DedupRecord) Completed() bool {
	return r != nil && r.State == ClaimStateCompleted && r.TicketID != nil && *r.TicketID != ""
}
