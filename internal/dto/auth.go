package dto

import (
	"time"

	"github.com/YashVG/techprep-sub000/internal/models"
)

// RegisterRequest is the payload of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest is the payload of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=30"`
	Password string `json:"password" validate:"required,max=128"`
}

// ChangePasswordRequest is the payload of POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=128"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
}

// UpdateProfileRequest is the payload of PUT /auth/profile.
type UpdateProfileRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// UserResponse wraps a single user view.
type UserResponse struct {
	User models.User `json:"user"`
}

// RequestMeta carries the transport facts services need for security events.
type RequestMeta struct {
	IP       string
	Endpoint string
}
