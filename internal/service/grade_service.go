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

type gradeAttemptStore interface {
	FindByID(ctx context.Context, id string) (*models.SubjectAttempt, error)
	UpdateStatus(ctx context.Context, id string, status models.AttemptStatus) error
}

type gradeStore interface {
	FindByAttempt(ctx context.Context, attemptID string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
}

// PostGradeRequest is the grading payload for one subject attempt.
type PostGradeRequest struct {
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
	Value     string `json:"grade" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=completed failed inc repeat_required"`
}

// GradeService posts grades on behalf of the grading workflow and advances
// the attempt status in the same operation. Enrollment itself never touches
// this path; it only reads its results.
type GradeService struct {
	attempts  gradeAttemptStore
	grades    gradeStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(attempts gradeAttemptStore, grades gradeStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{attempts: attempts, grades: grades, audit: audit, validator: validate, logger: logger}
}

// PostGrade records a grade for an attempt and moves its status. Each
// attempt takes exactly one grade; reposting is rejected.
func (s *GradeService) PostGrade(ctx context.Context, professorID string, req PostGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	attempt, err := s.attempts.FindByID(ctx, req.AttemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject attempt not found")
		}
		return nil, err
	}

	existing, err := s.grades.FindByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attempt already has a posted grade")
	}

	grade := &models.Grade{
		AttemptID:   attempt.ID,
		SubjectID:   attempt.SubjectID,
		ProfessorID: professorID,
		Value:       strings.TrimSpace(req.Value),
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, err
	}

	if err := s.attempts.UpdateStatus(ctx, attempt.ID, models.AttemptStatus(req.Status)); err != nil {
		return nil, err
	}

	s.logger.Info("grade posted",
		zap.String("attempt_id", attempt.ID),
		zap.String("subject_id", attempt.SubjectID),
		zap.String("status", req.Status))
	if s.audit != nil {
		s.audit.Record(ctx, models.AuditTrail{
			ActorID:   &professorID,
			Action:    models.AuditActionPostGrade,
			Entity:    "grades",
			EntityID:  &grade.ID,
			NewValues: []byte(`{"grade":"` + grade.Value + `","status":"` + req.Status + `"}`),
		})
	}
	return grade, nil
}
