package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// GradeRepository handles posted grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByAttempt returns the posted grade for an attempt, or nil when the
// attempt is still ungraded.
func (r *GradeRepository) FindByAttempt(ctx context.Context, attemptID string) (*models.Grade, error) {
	const query = `SELECT id, attempt_id, subject_id, professor_id, grade, posted_at
        FROM grades WHERE attempt_id = $1 ORDER BY posted_at DESC LIMIT 1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, attemptID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// MapByAttemptIDs returns attempt_id -> grade for the given attempts.
func (r *GradeRepository) MapByAttemptIDs(ctx context.Context, attemptIDs []string) (map[string]models.Grade, error) {
	if len(attemptIDs) == 0 {
		return map[string]models.Grade{}, nil
	}
	placeholders := make([]string, len(attemptIDs))
	args := make([]interface{}, len(attemptIDs))
	for i, id := range attemptIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, attempt_id, subject_id, professor_id, grade, posted_at
        FROM grades WHERE attempt_id IN (%s)`, strings.Join(placeholders, ", "))
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("map grades: %w", err)
	}
	byAttempt := make(map[string]models.Grade, len(grades))
	for _, g := range grades {
		byAttempt[g.AttemptID] = g
	}
	return byAttempt, nil
}

// Create persists a posted grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.PostedAt.IsZero() {
		grade.PostedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, attempt_id, subject_id, professor_id, grade, posted_at)
        VALUES (:id, :attempt_id, :subject_id, :professor_id, :grade, :posted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}
