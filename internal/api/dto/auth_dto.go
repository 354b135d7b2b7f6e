package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries a freshly issued session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordRequest carries a new password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// PasswordUpdatedResponse acknowledges a password change.
type PasswordUpdatedResponse struct {
	Status string `json:"status"`
}
