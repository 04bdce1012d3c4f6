package models

import "time"

// Security event names.
const (
	SecurityEventMissingToken          = "missing_auth_token"
	SecurityEventInvalidToken          = "invalid_token"
	SecurityEventExpiredToken          = "expired_token"
	SecurityEventLoginFailed           = "login_failed"
	SecurityEventRegistrationDuplicate = "registration_duplicate"
	SecurityEventPasswordChangeFailed  = "password_change_failed"
	SecurityEventRateLimitExceeded     = "rate_limit_exceeded"
	SecurityEventForbiddenAttempt      = "forbidden_attempt"
)

// SecurityEvent is a persisted record of a security-relevant request outcome.
type SecurityEvent struct {
	ID        string    `db:"id" json:"id"`
	Event     string    `db:"event" json:"event"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	Details   string    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
