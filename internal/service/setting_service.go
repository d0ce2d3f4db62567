package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type settingStore interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// UpdateSettingRequest is the payload for changing one portal setting.
type UpdateSettingRequest struct {
	Key         string `json:"key" validate:"required"`
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
}

// SettingService manages the key/value portal settings, most importantly the
// enrollment-open switch the gate reads on every request.
type SettingService struct {
	repo      settingStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingService constructs SettingService.
func NewSettingService(repo settingStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all settings.
func (s *SettingService) List(ctx context.Context) ([]models.Setting, error) {
	return s.repo.List(ctx)
}

// Get returns one setting by key.
func (s *SettingService) Get(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
		}
		return nil, err
	}
	return setting, nil
}

// Update upserts a setting and records who changed it.
func (s *SettingService) Update(ctx context.Context, actorID string, req UpdateSettingRequest) (*models.Setting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setting payload")
	}

	setting := &models.Setting{
		Key:         strings.TrimSpace(req.Key),
		Value:       strings.TrimSpace(req.Value),
		Description: req.Description,
		UpdatedBy:   &actorID,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	s.logger.Info("setting updated",
		zap.String("key", setting.Key),
		zap.String("value", setting.Value),
		zap.String("actor_id", actorID))
	if s.audit != nil {
		s.audit.Record(ctx, models.AuditTrail{
			ActorID:   &actorID,
			Action:    models.AuditActionSettingUpdate,
			Entity:    "settings",
			EntityID:  &setting.Key,
			NewValues: []byte(`{"value":"` + setting.Value + `"}`),
		})
	}
	return setting, nil
}
