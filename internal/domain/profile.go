package domain

import "time"

// Profile is the trusted record the caller's role is read from.
type Profile struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
