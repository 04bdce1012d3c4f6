package logger

import (
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"
)

// SecurityEvent describes a security-relevant occurrence. It never carries
// passwords or raw tokens.
type SecurityEvent struct {
	Event    string
	UserID   *int64
	IP       string
	Endpoint string
	Details  map[string]string
}

// SecurityLogger writes security events to a dedicated named logger.
type SecurityLogger struct {
	log *zap.Logger
}

// Security derives the security event logger from the application logger.
func Security(base *zap.Logger) *SecurityLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &SecurityLogger{log: base.Named("security")}
}

// Log emits the event at warn level.
func (s *SecurityLogger) Log(event SecurityEvent) {
	if s == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event", event.Event),
		zap.String("ip", event.IP),
		zap.String("endpoint", event.Endpoint),
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.UserID))
	}
	for key, value := range event.Details {
		fields = append(fields, zap.String(key, value))
	}
	s.log.Warn("security_event", fields...)
}

// TokenFingerprint returns a short, non-reversible identifier for a bearer token.
func TokenFingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])[:12]
}
