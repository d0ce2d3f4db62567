package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newSettingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSettingRepositoryGetBoolTrue(t *testing.T) {
	db, mock, cleanup := newSettingRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	rows := sqlmock.NewRows([]string{"value_text"}).AddRow("true")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value_text FROM settings WHERE key_name = $1")).
		WithArgs("enrollment_open").
		WillReturnRows(rows)

	open, err := repo.GetBool(context.Background(), "enrollment_open")
	require.NoError(t, err)
	require.True(t, open)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositoryGetBoolMissingKeyFailsClosed(t *testing.T) {
	db, mock, cleanup := newSettingRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value_text FROM settings WHERE key_name = $1")).
		WithArgs("enrollment_open").
		WillReturnRows(sqlmock.NewRows([]string{"value_text"}))

	open, err := repo.GetBool(context.Background(), "enrollment_open")
	require.NoError(t, err)
	require.False(t, open)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingRepositoryGetBoolRejectsGarbage(t *testing.T) {
	db, mock, cleanup := newSettingRepoMock(t)
	defer cleanup()
	repo := NewSettingRepository(db)

	rows := sqlmock.NewRows([]string{"value_text"}).AddRow("maybe")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT value_text FROM settings WHERE key_name = $1")).
		WithArgs("enrollment_open").
		WillReturnRows(rows)

	open, err := repo.GetBool(context.Background(), "enrollment_open")
	require.NoError(t, err)
	require.False(t, open)
	require.NoError(t, mock.ExpectationsWereMet())
}
