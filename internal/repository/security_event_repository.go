package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/YashVG/techprep-sub000/internal/models"
)

// SecurityEventRepository persists security events.
type SecurityEventRepository struct {
	db *sqlx.DB
}

// NewSecurityEventRepository creates a new repository.
func NewSecurityEventRepository(db *sqlx.DB) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

// Create stores an event.
func (r *SecurityEventRepository) Create(ctx context.Context, event *models.SecurityEvent) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Details == "" {
		event.Details = "{}"
	}

	const query = `INSERT INTO security_events (id, event, user_id, ip_address, endpoint, details, created_at) VALUES (:id, :event, :user_id, :ip_address, :endpoint, CAST(:details AS JSONB), :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create security event: %w", err)
	}
	return nil
}
