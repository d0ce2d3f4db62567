package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type sectionStore interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	ListByTerm(ctx context.Context, termID string) ([]models.Section, error)
	Roster(ctx context.Context, sectionID string) ([]models.SectionRosterRow, error)
	SetStatus(ctx context.Context, id string, status models.SectionStatus) error
}

// SectionService covers registrar section management: listing a term's
// sections, pulling class lists and toggling registration status.
type SectionService struct {
	repo   sectionStore
	audit  auditRecorder
	logger *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionStore, audit auditRecorder, logger *zap.Logger) *SectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, audit: audit, logger: logger}
}

// ListByTerm returns the sections scheduled in a term.
func (s *SectionService) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	return s.repo.ListByTerm(ctx, termID)
}

// ClassList returns the section together with its enrolled students.
func (s *SectionService) ClassList(ctx context.Context, sectionID string) (*models.Section, []models.SectionRosterRow, error) {
	section, err := s.repo.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, nil, err
	}

	roster, err := s.repo.Roster(ctx, sectionID)
	if err != nil {
		return nil, nil, err
	}
	return section, roster, nil
}

// SetStatus transitions a section between open, full and closed.
func (s *SectionService) SetStatus(ctx context.Context, sectionID string, status models.SectionStatus) (*models.Section, error) {
	switch status {
	case models.SectionStatusOpen, models.SectionStatusFull, models.SectionStatusClosed:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section status")
	}

	section, err := s.repo.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, err
	}

	if err := s.repo.SetStatus(ctx, section.ID, status); err != nil {
		return nil, err
	}
	section.Status = status

	s.logger.Info("section status changed",
		zap.String("section_id", section.ID),
		zap.String("status", string(status)))
	if s.audit != nil {
		s.audit.Record(ctx, models.AuditTrail{
			Action:   models.AuditActionSectionStatusSet,
			Entity:   "sections",
			EntityID: &section.ID,
		})
	}
	return section, nil
}
