package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
)

type levelAttemptReader interface {
	ListByStudent(ctx context.Context, studentID string, statusIn ...models.AttemptStatus) ([]models.SubjectAttempt, error)
}

type levelCurriculumReader interface {
	MapSubjectLevels(ctx context.Context, curriculumID string) (map[string]models.CurriculumLevel, error)
}

// LevelService computes a student's current (year, term) position from their
// completed and failed history.
type LevelService struct {
	attempts  levelAttemptReader
	curricula levelCurriculumReader
	logger    *zap.Logger
}

// NewLevelService constructs LevelService.
func NewLevelService(attempts levelAttemptReader, curricula levelCurriculumReader, logger *zap.Logger) *LevelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LevelService{attempts: attempts, curricula: curricula, logger: logger}
}

// CurrentLevel returns the level the student should enroll at next.
//
// The highest curriculum placement among completed AND failed attempts is
// taken as "reached", then advanced one step. Counting failed attempts keeps
// a student moving forward term by term even after a bad semester; whether
// that is intended is a registrar policy question, but it is the behavior
// the portal has always had and downstream gating depends on it.
func (s *LevelService) CurrentLevel(ctx context.Context, student *models.StudentDetail) (models.CurriculumLevel, error) {
	start := models.CurriculumLevel{Year: 1, TermNo: models.TermNoFirst}
	if student.CurriculumID == nil {
		return start, nil
	}

	attempts, err := s.attempts.ListByStudent(ctx, student.ID,
		models.AttemptStatusCompleted, models.AttemptStatusFailed)
	if err != nil {
		return start, err
	}
	if len(attempts) == 0 {
		return start, nil
	}

	placements, err := s.curricula.MapSubjectLevels(ctx, *student.CurriculumID)
	if err != nil {
		return start, err
	}

	var reached *models.CurriculumLevel
	for _, attempt := range attempts {
		level, ok := placements[attempt.SubjectID]
		if !ok {
			// Attempt for a subject outside the student's curriculum
			// (transfer credit, curriculum change): no bearing on level.
			continue
		}
		if reached == nil || reached.Before(level) {
			l := level
			reached = &l
		}
	}
	if reached == nil {
		return start, nil
	}
	return reached.Next(), nil
}
