package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/richwell-portal/registrar-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryFindByStudentAndTerm(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "term_id", "total_units", "status", "created_at"}).
		AddRow("enr-1", "stu-1", "term-1", 21.0, models.EnrollmentStatusConfirmed, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND term_id = $2")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByStudentAndTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	require.Equal(t, "enr-1", enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByStudentAndTermMissing(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND term_id = $2")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	enrollment, err := repo.FindByStudentAndTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Nil(t, enrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryConfirmWithAttempts(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "stu-1", "term-1", 6.0, models.EnrollmentStatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subject_attempts").
		WithArgs(sqlmock.AnyArg(), "stu-1", "subj-1", "term-1", nil, nil, models.AttemptStatusEnrolled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subject_attempts").
		WithArgs(sqlmock.AnyArg(), "stu-1", "subj-2", "term-1", nil, nil, models.AttemptStatusEnrolled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "stu-1", TermID: "term-1", TotalUnits: 6.0, Status: models.EnrollmentStatusConfirmed}
	attempts := []models.SubjectAttempt{
		{StudentID: "stu-1", SubjectID: "subj-1", TermID: "term-1", Status: models.AttemptStatusEnrolled},
		{StudentID: "stu-1", SubjectID: "subj-2", TermID: "term-1", Status: models.AttemptStatusEnrolled},
	}
	err := repo.ConfirmWithAttempts(context.Background(), enrollment, attempts)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryConfirmWithAttemptsDuplicate(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", TermID: "term-1", TotalUnits: 3.0}
	attempts := []models.SubjectAttempt{
		{StudentID: "stu-1", SubjectID: "subj-1", TermID: "term-1", Status: models.AttemptStatusEnrolled},
	}
	err := repo.ConfirmWithAttempts(context.Background(), enrollment, attempts)
	require.ErrorIs(t, err, ErrDuplicateEnrollment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryConfirmWithAttemptsRollsBackOnAttemptFailure(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subject_attempts").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{StudentID: "stu-1", TermID: "term-1", TotalUnits: 3.0}
	attempts := []models.SubjectAttempt{
		{StudentID: "stu-1", SubjectID: "subj-1", TermID: "term-1", Status: models.AttemptStatusEnrolled},
	}
	err := repo.ConfirmWithAttempts(context.Background(), enrollment, attempts)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "enr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListPastByStudent(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	newer := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "term_id", "total_units", "status", "created_at", "term_name", "term_end_date"}).
		AddRow("enr-2", "stu-1", "term-2", 18.0, models.EnrollmentStatusCompleted, time.Now(), "2nd Sem", newer).
		AddRow("enr-1", "stu-1", "term-1", 21.0, models.EnrollmentStatusCompleted, time.Now(), "1st Sem", older)
	mock.ExpectQuery("ORDER BY t.end_date DESC").
		WithArgs("stu-1", "term-3").
		WillReturnRows(rows)

	past, err := repo.ListPastByStudent(context.Background(), "stu-1", "term-3")
	require.NoError(t, err)
	require.Len(t, past, 2)
	require.Equal(t, "term-2", past[0].TermID)
	require.NoError(t, mock.ExpectationsWereMet())
}
