package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/pkg/jobs"
)

type auditWriter interface {
	Create(ctx context.Context, trail *models.AuditTrail) error
	ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]models.AuditTrail, error)
}

// AuditService writes audit trails through a background queue so the request
// path never blocks on the audit table.
type AuditService struct {
	repo   auditWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs AuditService and its worker queue. Call Start
// before recording and Stop on shutdown.
func NewAuditService(repo auditWriter, cfg jobs.QueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit trail write. Failures are logged, never returned:
// audit must not fail the operation it describes.
func (s *AuditService) Record(ctx context.Context, trail models.AuditTrail) {
	if trail.ID == "" {
		trail.ID = uuid.NewString()
	}
	if trail.CreatedAt.IsZero() {
		trail.CreatedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(jobs.Job{ID: trail.ID, Type: trail.Action, Payload: trail}); err != nil {
		s.logger.Warn("audit enqueue failed", zap.String("action", trail.Action), zap.Error(err))
	}
}

// History returns the most recent audit entries for one entity.
func (s *AuditService) History(ctx context.Context, entity, entityID string, limit int) ([]models.AuditTrail, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByEntity(ctx, entity, entityID, limit)
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	trail, ok := job.Payload.(models.AuditTrail)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, &trail)
}
