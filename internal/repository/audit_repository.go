package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// AuditRepository persists audit trail records.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create persists one audit record.
func (r *AuditRepository) Create(ctx context.Context, trail *models.AuditTrail) error {
	if trail.ID == "" {
		trail.ID = uuid.NewString()
	}
	if trail.CreatedAt.IsZero() {
		trail.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_trail (id, actor_id, action, entity, entity_id, old_values, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :actor_id, :action, :entity, :entity_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, trail); err != nil {
		return fmt.Errorf("create audit record: %w", err)
	}
	return nil
}

// ListByEntity returns audit records for one entity, newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]models.AuditTrail, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, actor_id, action, entity, entity_id, old_values, new_values, ip_address, user_agent, created_at
        FROM audit_trail WHERE entity = $1 AND entity_id = $2
        ORDER BY created_at DESC LIMIT %d`, limit)
	var trails []models.AuditTrail
	if err := r.db.SelectContext(ctx, &trails, query, entity, entityID); err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return trails, nil
}
