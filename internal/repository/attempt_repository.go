package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// AttemptRepository handles persistence of subject attempts.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository constructs the repository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

const attemptColumns = `id, student_id, subject_id, term_id, section_id, professor_id, status, created_at`

// ListByStudent returns a student's attempts, optionally restricted to a set
// of statuses.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID string, statusIn ...models.AttemptStatus) ([]models.SubjectAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_attempts WHERE student_id = $1`, attemptColumns)
	args := []interface{}{studentID}
	if len(statusIn) > 0 {
		placeholders := make([]string, len(statusIn))
		for i, status := range statusIn {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY created_at ASC"

	var attempts []models.SubjectAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// ListDetailByStudentAndTerm returns a student's attempts for one term with
// subject and term context.
func (r *AttemptRepository) ListDetailByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.SubjectAttemptDetail, error) {
	const query = `SELECT a.id, a.student_id, a.subject_id, a.term_id, a.section_id, a.professor_id, a.status, a.created_at,
        s.code AS subject_code, s.title AS subject_title, s.units,
        t.name AS term_name, t.end_date AS term_end_date,
        sec.code AS section_code
        FROM subject_attempts a
        JOIN subjects s ON s.id = a.subject_id
        JOIN terms t ON t.id = a.term_id
        LEFT JOIN sections sec ON sec.id = a.section_id
        WHERE a.student_id = $1 AND a.term_id = $2
        ORDER BY s.code ASC`
	var attempts []models.SubjectAttemptDetail
	if err := r.db.SelectContext(ctx, &attempts, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list term attempts: %w", err)
	}
	return attempts, nil
}

// ListUngraded returns attempts in a term that have no posted grade yet.
func (r *AttemptRepository) ListUngraded(ctx context.Context, studentID, termID string) ([]models.SubjectAttemptDetail, error) {
	const query = `SELECT a.id, a.student_id, a.subject_id, a.term_id, a.section_id, a.professor_id, a.status, a.created_at,
        s.code AS subject_code, s.title AS subject_title, s.units,
        t.name AS term_name, t.end_date AS term_end_date
        FROM subject_attempts a
        JOIN subjects s ON s.id = a.subject_id
        JOIN terms t ON t.id = a.term_id
        LEFT JOIN grades g ON g.attempt_id = a.id
        WHERE a.student_id = $1 AND a.term_id = $2 AND g.id IS NULL
        ORDER BY s.code ASC`
	var attempts []models.SubjectAttemptDetail
	if err := r.db.SelectContext(ctx, &attempts, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list ungraded attempts: %w", err)
	}
	return attempts, nil
}

// CountByStudentAndTerm counts a student's attempts within a term.
func (r *AttemptRepository) CountByStudentAndTerm(ctx context.Context, studentID, termID string) (int, error) {
	const query = `SELECT COUNT(*) FROM subject_attempts WHERE student_id = $1 AND term_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, termID); err != nil {
		return 0, fmt.Errorf("count term attempts: %w", err)
	}
	return count, nil
}

// FindByID returns an attempt by its ID.
func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*models.SubjectAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM subject_attempts WHERE id = $1`, attemptColumns)
	var attempt models.SubjectAttempt
	if err := r.db.GetContext(ctx, &attempt, query, id); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// UpdateStatus transitions an attempt's status. Only the grading workflow
// moves an attempt away from "enrolled".
func (r *AttemptRepository) UpdateStatus(ctx context.Context, id string, status models.AttemptStatus) error {
	const query = `UPDATE subject_attempts SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update attempt status: %w", err)
	}
	return nil
}
