package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	"github.com/richwell-portal/registrar-api/internal/repository"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

// MaxUnitsPerTerm is the hard cap on a single term's subject load.
const MaxUnitsPerTerm = 30

type enrollmentStore interface {
	FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error)
	ListPastByStudent(ctx context.Context, studentID, excludeTermID string) ([]models.EnrollmentDetail, error)
	Delete(ctx context.Context, id string) error
	ConfirmWithAttempts(ctx context.Context, enrollment *models.Enrollment, attempts []models.SubjectAttempt) error
}

type enrollmentAttemptReader interface {
	ListByStudent(ctx context.Context, studentID string, statusIn ...models.AttemptStatus) ([]models.SubjectAttempt, error)
	ListDetailByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.SubjectAttemptDetail, error)
	ListUngraded(ctx context.Context, studentID, termID string) ([]models.SubjectAttemptDetail, error)
	CountByStudentAndTerm(ctx context.Context, studentID, termID string) (int, error)
}

type enrollmentFlagReader interface {
	GetBool(ctx context.Context, key string) (bool, error)
}

type enrollmentSubjectReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type sectionAssigner interface {
	FindForSubject(ctx context.Context, subjectID, termID string) (*models.Section, error)
	FirstProfessor(ctx context.Context, sectionID string) (*string, error)
}

type auditRecorder interface {
	Record(ctx context.Context, trail models.AuditTrail)
}

type planInvalidator interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// EnrollmentService gates and commits term enrollments. The gate decides
// whether a student may open a new enrollment at all; the committer validates
// a concrete subject selection and persists it atomically.
type EnrollmentService struct {
	enrollments enrollmentStore
	attempts    enrollmentAttemptReader
	flags       enrollmentFlagReader
	subjects    enrollmentSubjectReader
	sections    sectionAssigner
	prereqs     prereqChecker
	levels      levelResolver
	audit       auditRecorder
	cache       planInvalidator
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. audit and cache may be
// nil in tests.
func NewEnrollmentService(
	enrollments enrollmentStore,
	attempts enrollmentAttemptReader,
	flags enrollmentFlagReader,
	subjects enrollmentSubjectReader,
	sections sectionAssigner,
	prereqs prereqChecker,
	levels levelResolver,
	audit auditRecorder,
	cache planInvalidator,
	logger *zap.Logger,
) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		attempts:    attempts,
		flags:       flags,
		subjects:    subjects,
		sections:    sections,
		prereqs:     prereqs,
		levels:      levels,
		audit:       audit,
		cache:       cache,
		logger:      logger,
	}
}

// CanEnroll runs the ordered gate checks for opening a new enrollment this
// term. Checks short-circuit on the first failure.
func (s *EnrollmentService) CanEnroll(ctx context.Context, student *models.StudentDetail, activeTerm *models.Term) (models.EnrollDecision, error) {
	open, err := s.flags.GetBool(ctx, models.SettingEnrollmentOpen)
	if err != nil {
		return models.EnrollDecision{}, fmt.Errorf("read enrollment flag: %w", err)
	}
	if !open {
		return models.EnrollDecision{Reason: models.EnrollClosed}, nil
	}

	if student.Status != models.StudentStatusActive {
		return models.EnrollDecision{Reason: models.EnrollStudentNotActive}, nil
	}

	existing, err := s.enrollments.FindByStudentAndTerm(ctx, student.ID, activeTerm.ID)
	if err != nil {
		return models.EnrollDecision{}, err
	}
	if existing != nil {
		count, err := s.attempts.CountByStudentAndTerm(ctx, student.ID, activeTerm.ID)
		if err != nil {
			return models.EnrollDecision{}, err
		}
		if count > 0 {
			return models.EnrollDecision{Reason: models.EnrollAlreadyEnrolled}, nil
		}
		// An enrollment row without attempts is garbage from an interrupted
		// confirm. Drop it and let the student start over.
		if err := s.enrollments.Delete(ctx, existing.ID); err != nil {
			return models.EnrollDecision{}, fmt.Errorf("delete orphan enrollment: %w", err)
		}
		s.logger.Warn("deleted orphan enrollment",
			zap.String("enrollment_id", existing.ID),
			zap.String("student_id", student.ID))
		s.recordAudit(ctx, models.AuditActionOrphanCleanup, "enrollments", existing.ID, existing, nil)
	}

	past, err := s.enrollments.ListPastByStudent(ctx, student.ID, activeTerm.ID)
	if err != nil {
		return models.EnrollDecision{}, err
	}
	if len(past) == 0 {
		level, err := s.levels.CurrentLevel(ctx, student)
		if err != nil {
			return models.EnrollDecision{}, err
		}
		if level.Year != 1 || level.TermNo != models.TermNoFirst {
			s.logger.Warn("student has no enrollment history but is past first term",
				zap.String("student_id", student.ID),
				zap.String("level", level.String()))
			return models.EnrollDecision{Reason: models.EnrollStatusError}, nil
		}
		return models.EnrollDecision{Allowed: true, Reason: models.EnrollEligible}, nil
	}

	// Past enrollments come back newest first.
	latest := past[0]
	ungraded, err := s.attempts.ListUngraded(ctx, student.ID, latest.TermID)
	if err != nil {
		return models.EnrollDecision{}, err
	}
	if len(ungraded) > 0 {
		pending := make([]models.UngradedSubject, len(ungraded))
		for i, attempt := range ungraded {
			pending[i] = models.UngradedSubject{
				SubjectID: attempt.SubjectID,
				Code:      attempt.SubjectCode,
				Status:    attempt.Status,
			}
		}
		return models.EnrollDecision{Reason: models.EnrollUngradedSubjects, Ungraded: pending}, nil
	}

	return models.EnrollDecision{Allowed: true, Reason: models.EnrollEligible}, nil
}

// Confirm validates the selected subjects and persists the enrollment with
// one attempt per subject in a single transaction. Sections and professors
// are attached opportunistically when one exists for the subject and term.
func (s *EnrollmentService) Confirm(ctx context.Context, student *models.StudentDetail, activeTerm *models.Term, subjectIDs []string) (*models.Enrollment, error) {
	if len(subjectIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no subjects selected")
	}

	seen := make(map[string]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		if seen[id] {
			return nil, appErrors.WithDetails(appErrors.ErrDuplicateSubject, "subject selected more than once", map[string]string{"subject_id": id})
		}
		seen[id] = true
	}

	subjects, err := s.subjects.FindByIDs(ctx, subjectIDs)
	if err != nil {
		return nil, err
	}
	if len(subjects) != len(subjectIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more selected subjects do not exist")
	}

	var totalUnits float64
	for _, subject := range subjects {
		totalUnits += subject.Units
	}
	if totalUnits > MaxUnitsPerTerm {
		return nil, appErrors.WithDetails(appErrors.ErrUnitCapExceeded,
			fmt.Sprintf("selected load of %.1f units exceeds the %d unit cap", totalUnits, MaxUnitsPerTerm),
			map[string]float64{"total_units": totalUnits, "max_units": MaxUnitsPerTerm})
	}

	taken, err := s.attempts.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	currentTerm := make(map[string]bool)
	for _, attempt := range taken {
		if attempt.TermID == activeTerm.ID {
			currentTerm[attempt.SubjectID] = true
		}
	}

	for _, subject := range subjects {
		if currentTerm[subject.ID] {
			return nil, appErrors.WithDetails(appErrors.ErrDuplicateSubject,
				fmt.Sprintf("%s is already enrolled for this term", subject.Code),
				map[string]string{"subject_id": subject.ID, "code": subject.Code})
		}

		// Selection and confirm may be separated by a session gap, so
		// prerequisites are re-validated here.
		result, err := s.prereqs.Check(ctx, student, subject.ID, nil)
		if err != nil {
			return nil, err
		}
		if !result.CanTake {
			unmet := result.Unmet()
			codes := make([]string, len(unmet))
			for i, u := range unmet {
				codes[i] = u.Code
			}
			return nil, appErrors.WithDetails(appErrors.ErrUnmetPrereq,
				fmt.Sprintf("%s has unmet prerequisites", subject.Code),
				map[string]interface{}{"subject_id": subject.ID, "code": subject.Code, "unmet": codes})
		}
	}

	enrollment := &models.Enrollment{
		StudentID:  student.ID,
		TermID:     activeTerm.ID,
		TotalUnits: totalUnits,
		Status:     models.EnrollmentStatusConfirmed,
	}
	attempts := make([]models.SubjectAttempt, 0, len(subjects))
	for _, subject := range subjects {
		attempt := models.SubjectAttempt{
			StudentID: student.ID,
			SubjectID: subject.ID,
			TermID:    activeTerm.ID,
			Status:    models.AttemptStatusEnrolled,
		}
		section, err := s.sections.FindForSubject(ctx, subject.ID, activeTerm.ID)
		if err != nil {
			return nil, err
		}
		if section != nil {
			attempt.SectionID = &section.ID
			professor, err := s.sections.FirstProfessor(ctx, section.ID)
			if err != nil {
				return nil, err
			}
			attempt.ProfessorID = professor
		}
		attempts = append(attempts, attempt)
	}

	if err := s.enrollments.ConfirmWithAttempts(ctx, enrollment, attempts); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, appErrors.ErrEnrollmentExists
		}
		return nil, fmt.Errorf("confirm enrollment: %w", err)
	}

	s.logger.Info("enrollment confirmed",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", student.ID),
		zap.String("term_id", activeTerm.ID),
		zap.Float64("total_units", totalUnits),
		zap.Int("subjects", len(attempts)))
	s.recordAudit(ctx, models.AuditActionConfirmEnroll, "enrollments", enrollment.ID, nil, enrollment)

	if s.cache != nil {
		if err := s.cache.DeleteByPrefix(ctx, PlanCacheKeyPrefix(student.ID)); err != nil {
			s.logger.Warn("availability cache invalidation failed", zap.Error(err))
		}
	}

	return enrollment, nil
}

// MyEnrollment returns the student's enrollment for the given term together
// with its subject attempts, or a not-found error when none exists yet.
func (s *EnrollmentService) MyEnrollment(ctx context.Context, student *models.StudentDetail, term *models.Term) (*models.Enrollment, []models.SubjectAttemptDetail, error) {
	enrollment, err := s.enrollments.FindByStudentAndTerm(ctx, student.ID, term.ID)
	if err != nil {
		return nil, nil, err
	}
	if enrollment == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollment for this term")
	}

	details, err := s.attempts.ListDetailByStudentAndTerm(ctx, student.ID, term.ID)
	if err != nil {
		return nil, nil, err
	}
	return enrollment, details, nil
}

func (s *EnrollmentService) recordAudit(ctx context.Context, action, entity, entityID string, oldValue, newValue interface{}) {
	if s.audit == nil {
		return
	}
	trail := models.AuditTrail{
		Action:   action,
		Entity:   entity,
		EntityID: &entityID,
	}
	if oldValue != nil {
		if raw, err := json.Marshal(oldValue); err == nil {
			trail.OldValues = raw
		}
	}
	if newValue != nil {
		if raw, err := json.Marshal(newValue); err == nil {
			trail.NewValues = raw
		}
	}
	s.audit.Record(ctx, trail)
}
