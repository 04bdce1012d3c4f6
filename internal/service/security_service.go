package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/pkg/jobs"
	"github.com/YashVG/techprep-sub000/pkg/logger"
)

const securityEventJob = "security_event"

type securityEventStore interface {
	Create(ctx context.Context, event *models.SecurityEvent) error
}

// SecurityRecorder is implemented by anything that accepts security events.
type SecurityRecorder interface {
	Record(ctx context.Context, event logger.SecurityEvent)
}

// SecurityService logs security events synchronously and persists them in
// the background. A nil *SecurityService discards events.
type SecurityService struct {
	log     *logger.SecurityLogger
	store   securityEventStore
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSecurityService builds the service. When store is nil events are only logged.
func NewSecurityService(store securityEventStore, metrics *MetricsService, base *zap.Logger, workers int) *SecurityService {
	if base == nil {
		base = zap.NewNop()
	}
	s := &SecurityService{
		log:     logger.Security(base),
		store:   store,
		metrics: metrics,
		logger:  base,
	}
	if store != nil {
		s.queue = jobs.NewQueue("security-events", s.persist, jobs.QueueConfig{
			Workers:    workers,
			MaxRetries: 2,
			RetryDelay: 500 * time.Millisecond,
			Logger:     base,
		})
	}
	return s
}

// Start launches the persistence workers.
func (s *SecurityService) Start(ctx context.Context) {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop flushes buffered events and stops the workers.
func (s *SecurityService) Stop() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Stop()
}

// Record logs the event and schedules it for persistence. It never blocks on storage.
func (s *SecurityService) Record(_ context.Context, event logger.SecurityEvent) {
	if s == nil {
		return
	}
	s.log.Log(event)
	s.metrics.RecordSecurityEvent(event.Event)
	if s.queue == nil {
		return
	}

	details := "{}"
	if len(event.Details) > 0 {
		if raw, err := json.Marshal(event.Details); err == nil {
			details = string(raw)
		}
	}
	row := &models.SecurityEvent{
		ID:        uuid.NewString(),
		Event:     event.Event,
		UserID:    event.UserID,
		IPAddress: event.IP,
		Endpoint:  event.Endpoint,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.queue.TryEnqueue(jobs.Job{Type: securityEventJob, Payload: row}); err != nil {
		s.logger.Warn("security event not persisted", zap.String("event", event.Event), zap.Error(err))
	}
}

func (s *SecurityService) persist(ctx context.Context, job jobs.Job) error {
	row, ok := job.Payload.(*models.SecurityEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.store.Create(ctx, row)
}

func principalEvent(name string, userID int64, meta dto.RequestMeta, details map[string]string) logger.SecurityEvent {
	ev := logger.SecurityEvent{Event: name, IP: meta.IP, Endpoint: meta.Endpoint, Details: details}
	if userID > 0 {
		id := userID
		ev.UserID = &id
	}
	return ev
}
