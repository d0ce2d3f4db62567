package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// ErrDuplicateEnrollment is returned when the unique (student, term) key
// already holds an enrollment. Callers treat it as a normal rejection path:
// a lost race, not a crash.
var ErrDuplicateEnrollment = errors.New("enrollment already exists for student and term")

const pqUniqueViolation = "23505"

// EnrollmentRepository handles persistence of term enrollment locks.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentAndTerm returns the enrollment for a (student, term) pair, or
// nil when none exists.
func (r *EnrollmentRepository) FindByStudentAndTerm(ctx context.Context, studentID, termID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, term_id, total_units, status, created_at
        FROM enrollments WHERE student_id = $1 AND term_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, termID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListPastByStudent returns a student's enrollments for terms other than the
// given one, most recently ended first.
func (r *EnrollmentRepository) ListPastByStudent(ctx context.Context, studentID, excludeTermID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.term_id, e.total_units, e.status, e.created_at,
        t.name AS term_name, t.end_date AS term_end_date
        FROM enrollments e
        JOIN terms t ON t.id = e.term_id
        WHERE e.student_id = $1 AND e.term_id <> $2
        ORDER BY t.end_date DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, excludeTermID); err != nil {
		return nil, fmt.Errorf("list past enrollments: %w", err)
	}
	return enrollments, nil
}

// Delete removes an enrollment record. Used only by the gate's orphan
// cleanup for enrollments with zero attached attempts.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ConfirmWithAttempts atomically creates the enrollment lock and one attempt
// row per selected subject. The insert relies on the unique (student, term)
// key: a concurrent confirm loses with ErrDuplicateEnrollment and nothing is
// persisted. Partial enrollment is never observable.
func (r *EnrollmentRepository) ConfirmWithAttempts(ctx context.Context, enrollment *models.Enrollment, attempts []models.SubjectAttempt) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusConfirmed
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}

	const enrollmentQuery = `INSERT INTO enrollments (id, student_id, term_id, total_units, status, created_at)
        VALUES (:id, :student_id, :term_id, :total_units, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, enrollmentQuery, enrollment); err != nil {
		_ = tx.Rollback()
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateEnrollment
		}
		return fmt.Errorf("create enrollment: %w", err)
	}

	const attemptQuery = `INSERT INTO subject_attempts (id, student_id, subject_id, term_id, section_id, professor_id, status, created_at)
        VALUES (:id, :student_id, :subject_id, :term_id, :section_id, :professor_id, :status, :created_at)`
	for i := range attempts {
		if attempts[i].ID == "" {
			attempts[i].ID = uuid.NewString()
		}
		if attempts[i].CreatedAt.IsZero() {
			attempts[i].CreatedAt = enrollment.CreatedAt
		}
		if _, err := tx.NamedExecContext(ctx, attemptQuery, attempts[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("create subject attempt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}
