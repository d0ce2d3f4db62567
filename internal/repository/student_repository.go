package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// StudentRepository handles persistence of student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailColumns = `s.id, s.user_id, s.student_no, s.program_id, s.curriculum_id, s.status,
        s.onboarding_complete, s.created_at,
        p.name AS program_name, p.level AS program_level, p.passing_grade`

// FindByID returns a student with program context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
        JOIN programs p ON p.id = s.program_id
        WHERE s.id = $1`, studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByUserID returns the student record linked to an account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
        JOIN programs p ON p.id = s.program_id
        WHERE s.user_id = $1`, studentDetailColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CompleteOnboarding marks onboarding done and activates the student.
func (r *StudentRepository) CompleteOnboarding(ctx context.Context, id string) error {
	const query = `UPDATE students SET onboarding_complete = TRUE, status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.StudentStatusActive); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	return nil
}

// AssignCurriculum sets the curriculum a student follows.
func (r *StudentRepository) AssignCurriculum(ctx context.Context, id, curriculumID string) error {
	const query = `UPDATE students SET curriculum_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, curriculumID); err != nil {
		return fmt.Errorf("assign curriculum: %w", err)
	}
	return nil
}
