package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// SettingRepository persists key/value portal settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs the repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get fetches a single setting by key.
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	const query = `SELECT key_name, value_text, description, updated_by, updated_at
        FROM settings WHERE key_name = $1`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetBool interprets a setting as a boolean flag. A missing key reads as
// false rather than an error so a fresh database fails closed.
func (r *SettingRepository) GetBool(ctx context.Context, key string) (bool, error) {
	const query = `SELECT value_text FROM settings WHERE key_name = $1`
	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return models.Setting{Value: value}.Bool(), nil
}

// List returns all settings ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	const query = `SELECT key_name, value_text, description, updated_by, updated_at
        FROM settings ORDER BY key_name ASC`
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Upsert inserts or updates a setting entry.
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	const query = `INSERT INTO settings (key_name, value_text, description, updated_by, updated_at)
        VALUES (:key_name, :value_text, :description, :updated_by, :updated_at)
        ON CONFLICT (key_name)
        DO UPDATE SET value_text = EXCLUDED.value_text, description = EXCLUDED.description,
                      updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	setting.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
