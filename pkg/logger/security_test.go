package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecurityLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sec := Security(zap.New(core))

	uid := int64(7)
	sec.Log(SecurityEvent{
		Event:    "login_failed",
		UserID:   &uid,
		IP:       "10.0.0.1",
		Endpoint: "/auth/login",
		Details:  map[string]string{"username": "alice"},
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "security", entry.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "login_failed", fields["event"])
	assert.Equal(t, int64(7), fields["user_id"])
	assert.Equal(t, "10.0.0.1", fields["ip"])
	assert.Equal(t, "alice", fields["username"])
}

func TestTokenFingerprint(t *testing.T) {
	fp := TokenFingerprint("header.payload.signature")
	assert.Len(t, fp, 12)
	assert.NotContains(t, fp, "payload")
	assert.Equal(t, fp, TokenFingerprint("header.payload.signature"))
	assert.Empty(t, TokenFingerprint(""))
}
