package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type levelResolver interface {
	CurrentLevel(ctx context.Context, student *models.StudentDetail) (models.CurriculumLevel, error)
}

type prereqChecker interface {
	Check(ctx context.Context, student *models.StudentDetail, subjectID string, passingGrade *float64) (models.EligibilityResult, error)
}

type availabilityCurriculumReader interface {
	ListSubjects(ctx context.Context, curriculumID string) ([]models.CurriculumSubjectDetail, error)
}

type availabilityAttemptReader interface {
	ListByStudent(ctx context.Context, studentID string, statusIn ...models.AttemptStatus) ([]models.SubjectAttempt, error)
}

type planCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool)
}

// AvailabilityService enumerates every curriculum subject for a student and
// term, each annotated with why it is or is not enrollable right now.
type AvailabilityService struct {
	levels    levelResolver
	prereqs   prereqChecker
	curricula availabilityCurriculumReader
	attempts  availabilityAttemptReader
	cache     planCache
	cacheTTL  time.Duration
	observer  cacheObserver
	logger    *zap.Logger
}

// NewAvailabilityService constructs AvailabilityService. cache and observer
// may be nil.
func NewAvailabilityService(levels levelResolver, prereqs prereqChecker, curricula availabilityCurriculumReader, attempts availabilityAttemptReader, cache planCache, cacheTTL time.Duration, observer cacheObserver, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		levels:    levels,
		prereqs:   prereqs,
		curricula: curricula,
		attempts:  attempts,
		cache:     cache,
		cacheTTL:  cacheTTL,
		observer:  observer,
		logger:    logger,
	}
}

// PlanCacheKeyPrefix builds the cache key prefix for one student's plans, so
// a confirm can invalidate every variant at once.
func PlanCacheKeyPrefix(studentID string) string {
	return fmt.Sprintf("availability:%s:", studentID)
}

func planCacheKey(studentID, termID string, includeIncompletePath bool) string {
	return fmt.Sprintf("%s%s:%t", PlanCacheKeyPrefix(studentID), termID, includeIncompletePath)
}

// ListAvailableSubjects classifies every subject placement of the student's
// curriculum for the active term.
//
// includeIncompletePath opens a preview of next year's first term when the
// student carries an INC out of a second term; it never unlocks the next
// semester within the same year.
func (s *AvailabilityService) ListAvailableSubjects(ctx context.Context, student *models.StudentDetail, activeTerm *models.Term, includeIncompletePath bool) (models.AvailabilityPlan, error) {
	var plan models.AvailabilityPlan

	if student.CurriculumID == nil {
		return plan, nil
	}

	cacheKey := planCacheKey(student.ID, activeTerm.ID, includeIncompletePath)
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &plan); err == nil {
			if s.observer != nil {
				s.observer.RecordCacheOperation(true)
			}
			return plan, nil
		} else if appErrors.FromError(err).Code != appErrors.ErrCacheMiss.Code {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		}
		if s.observer != nil {
			s.observer.RecordCacheOperation(false)
		}
	}

	studentLevel, err := s.levels.CurrentLevel(ctx, student)
	if err != nil {
		return plan, err
	}

	attempts, err := s.attempts.ListByStudent(ctx, student.ID)
	if err != nil {
		return plan, err
	}
	hasCurrentTerm := make(map[string]bool)
	hasPastTerm := make(map[string]bool)
	for _, attempt := range attempts {
		if attempt.TermID == activeTerm.ID {
			hasCurrentTerm[attempt.SubjectID] = true
		} else {
			hasPastTerm[attempt.SubjectID] = true
		}
		if attempt.Status == models.AttemptStatusIncomplete {
			plan.HasIncomplete = true
		}
	}

	visible := map[models.CurriculumLevel]bool{studentLevel: true}
	if plan.HasIncomplete && includeIncompletePath && studentLevel.TermNo == models.TermNoSecond {
		visible[models.CurriculumLevel{Year: studentLevel.Year + 1, TermNo: models.TermNoFirst}] = true
	}

	placements, err := s.curricula.ListSubjects(ctx, *student.CurriculumID)
	if err != nil {
		return plan, err
	}

	for _, placement := range placements {
		subject := models.Subject{
			ID:    placement.SubjectID,
			Code:  placement.SubjectCode,
			Title: placement.SubjectTitle,
			Units: placement.Units,
		}
		entry := models.SubjectAvailability{
			Subject:      subject,
			Level:        placement.Level(),
			StudentLevel: studentLevel,
			Visible:      visible[placement.Level()],
		}

		switch {
		case hasPastTerm[subject.ID]:
			entry.Tag = models.AvailabilityTaken
			entry.Reason = "Already completed"
		case hasCurrentTerm[subject.ID]:
			// Mid-processing for this term: not shown at all.
			continue
		case !entry.Visible:
			entry.Tag = models.AvailabilityFutureLevel
			entry.Reason = fmt.Sprintf("Available at %s", placement.Level())
		default:
			result, err := s.prereqs.Check(ctx, student, subject.ID, nil)
			if err != nil {
				return plan, err
			}
			s.classifyByPrereqs(&entry, result)
		}

		plan.Subjects = append(plan.Subjects, entry)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, plan, s.cacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return plan, nil
}

func (s *AvailabilityService) classifyByPrereqs(entry *models.SubjectAvailability, result models.EligibilityResult) {
	if result.CanTake {
		entry.Tag = models.AvailabilityReady
		return
	}

	entry.Unmet = result.Unmet()
	entry.WithIncomplete = result.WithIncomplete()

	if len(entry.WithIncomplete) > 0 {
		entry.Tag = models.AvailabilityIncPrereq
		inc := entry.WithIncomplete[0]
		entry.Reason = fmt.Sprintf("Prerequisite %s has an incomplete grade of %.2f", inc.Subject.Code, inc.Grade)
		return
	}

	entry.Tag = models.AvailabilityUnmetPrereq
	codes := make([]string, len(entry.Unmet))
	for i, unmet := range entry.Unmet {
		codes[i] = unmet.Code
	}
	entry.Reason = fmt.Sprintf("Unmet prerequisites: %s", strings.Join(codes, ", "))
}
