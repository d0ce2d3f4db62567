package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	CompleteOnboarding(ctx context.Context, id string) error
	AssignCurriculum(ctx context.Context, id, curriculumID string) error
}

type studentCurriculumReader interface {
	FindActiveByProgram(ctx context.Context, programID string) (*models.Curriculum, error)
}

// StudentService resolves student records and handles onboarding, which must
// complete before a student can reach the enrollment flow.
type StudentService struct {
	students  studentStore
	curricula studentCurriculumReader
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentStore, curricula studentCurriculumReader, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, curricula: curricula, logger: logger}
}

// Get returns a student with program context.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}
	return student, nil
}

// ForUser returns the student record linked to an account.
func (s *StudentService) ForUser(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, err
	}
	return student, nil
}

// ForEnrollment returns the student for an account and verifies they have
// finished onboarding, which assigns the curriculum enrollment depends on.
func (s *StudentService) ForEnrollment(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !student.OnboardingComplete {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "complete onboarding before enrolling")
	}
	return student, nil
}

// CompleteOnboarding activates the student and pins them to the current
// active curriculum of their program.
func (s *StudentService) CompleteOnboarding(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if student.OnboardingComplete {
		return student, nil
	}

	if student.CurriculumID == nil {
		curriculum, err := s.curricula.FindActiveByProgram(ctx, student.ProgramID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "program has no active curriculum")
			}
			return nil, err
		}
		if err := s.students.AssignCurriculum(ctx, student.ID, curriculum.ID); err != nil {
			return nil, err
		}
		student.CurriculumID = &curriculum.ID
	}

	if err := s.students.CompleteOnboarding(ctx, student.ID); err != nil {
		return nil, err
	}
	student.OnboardingComplete = true
	student.Status = models.StudentStatusActive

	s.logger.Info("onboarding completed", zap.String("student_id", student.ID))
	return student, nil
}
