package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
)

type prereqSubjectReader interface {
	ListPrerequisites(ctx context.Context, subjectID string) ([]models.Subject, error)
}

type prereqAttemptReader interface {
	ListByStudent(ctx context.Context, studentID string, statusIn ...models.AttemptStatus) ([]models.SubjectAttempt, error)
}

type prereqGradeReader interface {
	FindByAttempt(ctx context.Context, attemptID string) (*models.Grade, error)
}

// PrereqService evaluates whether a student satisfies a subject's direct
// prerequisites. Transitive chains are not traversed here: a student cannot
// complete a subject without first clearing its own prerequisites, so deep
// chains resolve themselves one level per term.
type PrereqService struct {
	subjects prereqSubjectReader
	attempts prereqAttemptReader
	grades   prereqGradeReader
	logger   *zap.Logger
}

// NewPrereqService constructs PrereqService.
func NewPrereqService(subjects prereqSubjectReader, attempts prereqAttemptReader, grades prereqGradeReader, logger *zap.Logger) *PrereqService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrereqService{subjects: subjects, attempts: attempts, grades: grades, logger: logger}
}

// Check evaluates every direct prerequisite of the subject for the student.
// passingGrade overrides the student's program threshold when non-nil.
//
// An incomplete prerequisite attempt blocks the dependent subject even when
// its posted grade already passes the threshold: the grade only upgrades the
// reason shown to the student (IncompleteBlocking), never the outcome. The
// student must have the INC cleared by the registrar before moving on.
func (s *PrereqService) Check(ctx context.Context, student *models.StudentDetail, subjectID string, passingGrade *float64) (models.EligibilityResult, error) {
	result := models.EligibilityResult{SubjectID: subjectID, CanTake: true}

	prereqs, err := s.subjects.ListPrerequisites(ctx, subjectID)
	if err != nil {
		return result, err
	}
	if len(prereqs) == 0 {
		return result, nil
	}

	threshold := student.PassingGrade
	if passingGrade != nil {
		threshold = *passingGrade
	}

	attempts, err := s.attempts.ListByStudent(ctx, student.ID)
	if err != nil {
		return result, err
	}
	bySubject := make(map[string][]models.SubjectAttempt)
	for _, attempt := range attempts {
		bySubject[attempt.SubjectID] = append(bySubject[attempt.SubjectID], attempt)
	}

	for _, prereq := range prereqs {
		check, err := s.evaluate(ctx, prereq, bySubject[prereq.ID], threshold)
		if err != nil {
			return result, err
		}
		if check.Blocking() {
			result.CanTake = false
		}
		result.Prereqs = append(result.Prereqs, check)
	}
	return result, nil
}

func (s *PrereqService) evaluate(ctx context.Context, prereq models.Subject, attempts []models.SubjectAttempt, threshold float64) (models.PrereqCheck, error) {
	check := models.PrereqCheck{Subject: prereq, State: models.PrereqUnmet}

	var latestInc *models.SubjectAttempt
	for i := range attempts {
		switch attempts[i].Status {
		case models.AttemptStatusCompleted:
			check.State = models.PrereqSatisfied
			return check, nil
		case models.AttemptStatusIncomplete:
			if latestInc == nil || attempts[i].CreatedAt.After(latestInc.CreatedAt) {
				latestInc = &attempts[i]
			}
		}
	}

	if latestInc == nil {
		// No record, failed, or repeat_required: plain unmet.
		return check, nil
	}

	grade, err := s.grades.FindByAttempt(ctx, latestInc.ID)
	if err != nil {
		return check, err
	}
	if grade == nil {
		return check, nil
	}
	value, ok := grade.Numeric()
	if !ok || value < threshold {
		return check, nil
	}

	check.State = models.PrereqIncompleteBlocking
	check.Grade = &value
	return check, nil
}
