package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// CurriculumRepository handles catalog lookups for curricula and subject
// placements.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// FindByID returns a curriculum by its ID.
func (r *CurriculumRepository) FindByID(ctx context.Context, id string) (*models.Curriculum, error) {
	const query = `SELECT id, program_id, version, effective_sy, active, created_at
        FROM curricula WHERE id = $1`
	var curriculum models.Curriculum
	if err := r.db.GetContext(ctx, &curriculum, query, id); err != nil {
		return nil, err
	}
	return &curriculum, nil
}

// FindActiveByProgram returns the active curriculum for a program.
func (r *CurriculumRepository) FindActiveByProgram(ctx context.Context, programID string) (*models.Curriculum, error) {
	const query = `SELECT id, program_id, version, effective_sy, active, created_at
        FROM curricula WHERE program_id = $1 AND active = TRUE
        ORDER BY created_at DESC LIMIT 1`
	var curriculum models.Curriculum
	if err := r.db.GetContext(ctx, &curriculum, query, programID); err != nil {
		return nil, err
	}
	return &curriculum, nil
}

// ListSubjects returns every subject placement of a curriculum with subject
// details, ordered by placement then code.
func (r *CurriculumRepository) ListSubjects(ctx context.Context, curriculumID string) ([]models.CurriculumSubjectDetail, error) {
	const query = `SELECT cs.id, cs.curriculum_id, cs.subject_id, cs.year_level, cs.term_no,
        cs.is_recommended, cs.created_at,
        s.code AS subject_code, s.title AS subject_title, s.units
        FROM curriculum_subjects cs
        JOIN subjects s ON s.id = cs.subject_id
        WHERE cs.curriculum_id = $1
        ORDER BY cs.year_level ASC, cs.term_no ASC, s.code ASC`
	var placements []models.CurriculumSubjectDetail
	if err := r.db.SelectContext(ctx, &placements, query, curriculumID); err != nil {
		return nil, fmt.Errorf("list curriculum subjects: %w", err)
	}
	return placements, nil
}

// MapSubjectLevels returns subject_id -> (year, term) placement for a
// curriculum. Subjects outside the curriculum are simply absent.
func (r *CurriculumRepository) MapSubjectLevels(ctx context.Context, curriculumID string) (map[string]models.CurriculumLevel, error) {
	const query = `SELECT subject_id, year_level, term_no FROM curriculum_subjects WHERE curriculum_id = $1`
	rows := []struct {
		SubjectID string `db:"subject_id"`
		YearLevel int    `db:"year_level"`
		TermNo    int    `db:"term_no"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, curriculumID); err != nil {
		return nil, fmt.Errorf("map subject levels: %w", err)
	}
	levels := make(map[string]models.CurriculumLevel, len(rows))
	for _, row := range rows {
		levels[row.SubjectID] = models.CurriculumLevel{Year: row.YearLevel, TermNo: row.TermNo}
	}
	return levels, nil
}
