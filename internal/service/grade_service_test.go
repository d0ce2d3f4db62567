package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/richwell-portal/registrar-api/internal/models"
	appErrors "github.com/richwell-portal/registrar-api/pkg/errors"
)

type mockGradeAttempts struct {
	attempts map[string]*models.SubjectAttempt
	statuses map[string]models.AttemptStatus
}

func (m *mockGradeAttempts) FindByID(ctx context.Context, id string) (*models.SubjectAttempt, error) {
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return attempt, nil
}

func (m *mockGradeAttempts) UpdateStatus(ctx context.Context, id string, status models.AttemptStatus) error {
	m.statuses[id] = status
	return nil
}

type mockGrades struct {
	byAttempt map[string]*models.Grade
	created   []*models.Grade
}

func (m *mockGrades) FindByAttempt(ctx context.Context, attemptID string) (*models.Grade, error) {
	return m.byAttempt[attemptID], nil
}

func (m *mockGrades) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = "grade-new"
	m.created = append(m.created, grade)
	m.byAttempt[grade.AttemptID] = grade
	return nil
}

const gradeAttemptID = "6f1cbb1e-33a9-4cf2-9b5e-9a4f6f2a8b10"

func newGradeFixture() (*mockGradeAttempts, *mockGrades, *GradeService) {
	attempts := &mockGradeAttempts{
		attempts: map[string]*models.SubjectAttempt{
			gradeAttemptID: {ID: gradeAttemptID, StudentID: "s1", SubjectID: "subj-1", TermID: "term-1", Status: models.AttemptStatusEnrolled},
		},
		statuses: map[string]models.AttemptStatus{},
	}
	grades := &mockGrades{byAttempt: map[string]*models.Grade{}}
	return attempts, grades, NewGradeService(attempts, grades, nil, nil, zap.NewNop())
}

func TestPostGradeAdvancesAttemptStatus(t *testing.T) {
	attempts, grades, svc := newGradeFixture()

	grade, err := svc.PostGrade(context.Background(), "prof-1", PostGradeRequest{
		AttemptID: gradeAttemptID,
		Value:     " 1.75 ",
		Status:    "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, "1.75", grade.Value)
	assert.Equal(t, "subj-1", grade.SubjectID)
	assert.Equal(t, models.AttemptStatusCompleted, attempts.statuses[gradeAttemptID])
	require.Len(t, grades.created, 1)
}

func TestPostGradeRejectsRepost(t *testing.T) {
	_, grades, svc := newGradeFixture()
	grades.byAttempt[gradeAttemptID] = &models.Grade{ID: "grade-1", AttemptID: gradeAttemptID, Value: "2.00"}

	_, err := svc.PostGrade(context.Background(), "prof-1", PostGradeRequest{
		AttemptID: gradeAttemptID,
		Value:     "1.50",
		Status:    "completed",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, grades.created)
}

func TestPostGradeUnknownAttempt(t *testing.T) {
	_, _, svc := newGradeFixture()

	_, err := svc.PostGrade(context.Background(), "prof-1", PostGradeRequest{
		AttemptID: "0a139f2d-4cf5-4d0e-8e64-2b5f8b7a9c21",
		Value:     "1.50",
		Status:    "completed",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPostGradeValidatesStatus(t *testing.T) {
	_, grades, svc := newGradeFixture()

	_, err := svc.PostGrade(context.Background(), "prof-1", PostGradeRequest{
		AttemptID: gradeAttemptID,
		Value:     "1.50",
		Status:    "graduated",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, grades.created)
}
