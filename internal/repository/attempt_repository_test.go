package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/richwell-portal/registrar-api/internal/models"
)

func newAttemptRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttemptRepositoryListByStudentWithStatusFilter(t *testing.T) {
	db, mock, cleanup := newAttemptRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "term_id", "section_id", "professor_id", "status", "created_at"}).
		AddRow("att-1", "stu-1", "subj-1", "term-1", nil, nil, models.AttemptStatusCompleted, time.Now()).
		AddRow("att-2", "stu-1", "subj-2", "term-1", nil, nil, models.AttemptStatusFailed, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND status IN ($2, $3)")).
		WithArgs("stu-1", models.AttemptStatusCompleted, models.AttemptStatusFailed).
		WillReturnRows(rows)

	attempts, err := repo.ListByStudent(context.Background(), "stu-1", models.AttemptStatusCompleted, models.AttemptStatusFailed)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryListUngraded(t *testing.T) {
	db, mock, cleanup := newAttemptRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "student_id", "subject_id", "term_id", "section_id", "professor_id", "status", "created_at",
		"subject_code", "subject_title", "units", "term_name", "term_end_date",
	}).AddRow("att-1", "stu-1", "subj-1", "term-1", nil, nil, models.AttemptStatusEnrolled, time.Now(),
		"CS103", "Data Structures", 3.0, "1st Sem", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("g.id IS NULL")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(rows)

	attempts, err := repo.ListUngraded(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.Equal(t, "CS103", attempts[0].SubjectCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryCountByStudentAndTerm(t *testing.T) {
	db, mock, cleanup := newAttemptRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subject_attempts WHERE student_id = $1 AND term_id = $2")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountByStudentAndTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAttemptRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subject_attempts SET status = $2 WHERE id = $1")).
		WithArgs("att-1", models.AttemptStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "att-1", models.AttemptStatusCompleted)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
