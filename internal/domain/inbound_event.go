package domain

import "time"

// InboundEvent is one external occurrence, typically an email converted by a relay.
type InboundEvent struct {
	MessageID      string
	Title          string
	Content        string
	RequesterEmail string
	RequesterName  string
	BusinessKey    string
	ReceivedAt     *time.Time
}
