package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type termRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActiveByLevel(ctx context.Context, level models.ProgramLevel) (*models.Term, error)
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	Activate(ctx context.Context, id string, level models.ProgramLevel) error
	Close(ctx context.Context, id string) error
}

// TermService manages the term lifecycle. Activation is per program level:
// activating a Bachelor term never touches the Masteral one.
type TermService struct {
	repo   termRepository
	audit  auditRecorder
	logger *zap.Logger
}

// NewTermService constructs TermService.
func NewTermService(repo termRepository, audit auditRecorder, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, audit: audit, logger: logger}
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, err
	}
	return term, nil
}

// ActiveForStudent returns the active term for the student's program level.
func (s *TermService) ActiveForStudent(ctx context.Context, student *models.StudentDetail) (*models.Term, error) {
	term, err := s.repo.FindActiveByLevel(ctx, student.ProgramLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term for this program level")
		}
		return nil, err
	}
	return term, nil
}

// List returns terms matching the filter plus the total count.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return s.repo.List(ctx, filter)
}

// Activate marks a term as the active one for its level, deactivating any
// other active term of the same level in the same transaction.
func (s *TermService) Activate(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Archived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot activate an archived term")
	}

	if err := s.repo.Activate(ctx, term.ID, term.Level); err != nil {
		return nil, err
	}
	term.IsActive = true

	s.logger.Info("term activated", zap.String("term_id", term.ID), zap.String("level", string(term.Level)))
	s.record(ctx, models.AuditActionTermActivate, term)
	return term, nil
}

// Close deactivates and archives a term. Closed terms stay readable for
// history but never accept new enrollments.
func (s *TermService) Close(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Archived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "term is already closed")
	}

	if err := s.repo.Close(ctx, term.ID); err != nil {
		return nil, err
	}
	term.IsActive = false
	term.Archived = true

	s.logger.Info("term closed", zap.String("term_id", term.ID))
	s.record(ctx, models.AuditActionTermClose, term)
	return term, nil
}

func (s *TermService) record(ctx context.Context, action string, term *models.Term) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditTrail{
		Action:   action,
		Entity:   "terms",
		EntityID: &term.ID,
	})
}
