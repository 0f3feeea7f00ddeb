package dto

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/auth"
)

// LoginRequest accepts {username, password} or {email, password, role}.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email,max=128"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
	Role     string `json:"role" validate:"required_with=Email"`
}

// LoginResponse is the login boundary's reply.
type LoginResponse struct {
	Success   bool       `json:"success"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// VerifyRequest carries a token to check.
type VerifyRequest struct {
	Token string `json:"token" validate:"max=8192"`
}

// VerifyResponse is always returned with status 200.
type VerifyResponse struct {
	Valid   bool         `json:"valid"`
	Payload *auth.Claims `json:"payload,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// SetActiveRequest toggles an operator's activation.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}
