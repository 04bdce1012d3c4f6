package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/YashVG/techprep-sub000/internal/models"
	memstore "github.com/YashVG/techprep-sub000/internal/testutil"
	"github.com/YashVG/techprep-sub000/pkg/logger"
)

func TestSecurityServiceLogsCountsAndPersists(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	db := memstore.NewMemoryDB()
	metrics := NewMetricsService()
	svc := NewSecurityService(db.SecurityEvents, metrics, zap.New(core), 1)
	svc.Start(context.Background())

	uid := int64(3)
	svc.Record(context.Background(), logger.SecurityEvent{
		Event:    models.SecurityEventRateLimitExceeded,
		UserID:   &uid,
		IP:       "10.0.0.9",
		Endpoint: "/auth/login",
		Details:  map[string]string{"group": "login"},
	})
	svc.Stop()

	events := db.SecurityEvents.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.SecurityEventRateLimitExceeded, events[0].Event)
	assert.Equal(t, "10.0.0.9", events[0].IPAddress)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, uid, *events[0].UserID)
	assert.NotEmpty(t, events[0].ID)

	var details map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[0].Details), &details))
	assert.Equal(t, "login", details["group"])

	assert.Equal(t, 1, securityEntries(logs).Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.securityEvents.WithLabelValues(models.SecurityEventRateLimitExceeded)))
}

func TestSecurityServiceNilIsNoop(t *testing.T) {
	var svc *SecurityService
	assert.NotPanics(t, func() {
		svc.Start(context.Background())
		svc.Record(context.Background(), logger.SecurityEvent{Event: "x"})
		svc.Stop()
	})
}

func TestSecurityServiceWithoutStoreOnlyLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewSecurityService(nil, nil, zap.New(core), 1)
	svc.Record(context.Background(), logger.SecurityEvent{Event: models.SecurityEventInvalidToken})
	assert.Equal(t, 1, securityEntries(logs).Len())
}

func securityEntries(logs *observer.ObservedLogs) *observer.ObservedLogs {
	return logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "security" })
}
