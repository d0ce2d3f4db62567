package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// SectionRepository handles section lookups for the committer's
// opportunistic allocation and registrar section management.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `sec.id, sec.term_id, sec.code, sec.capacity, sec.status, sec.created_at`

// FindForSubject returns a section offering the subject in the term,
// preferring open sections. Returns nil without error when none exists:
// section assignment is optional at commit time.
func (r *SectionRepository) FindForSubject(ctx context.Context, subjectID, termID string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections sec
        JOIN section_subjects ss ON ss.section_id = sec.id
        WHERE ss.subject_id = $1 AND sec.term_id = $2
        ORDER BY CASE WHEN sec.status = $3 THEN 0 ELSE 1 END, sec.code ASC
        LIMIT 1`, sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, subjectID, termID, models.SectionStatusOpen); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find section for subject: %w", err)
	}
	return &section, nil
}

// FirstProfessor returns the first professor assigned to a section, or nil
// when the section has none yet.
func (r *SectionRepository) FirstProfessor(ctx context.Context, sectionID string) (*string, error) {
	const query = `SELECT sp.professor_id FROM section_professors sp
        WHERE sp.section_id = $1 ORDER BY sp.created_at ASC LIMIT 1`
	var professorID string
	if err := r.db.GetContext(ctx, &professorID, query, sectionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("first section professor: %w", err)
	}
	return &professorID, nil
}

// ListByTerm returns all sections scheduled in a term.
func (r *SectionRepository) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections sec
        WHERE sec.term_id = $1 ORDER BY sec.code ASC`, sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, termID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID returns a section by its ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf(`SELECT %s FROM sections sec WHERE sec.id = $1`, sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Roster returns the students with attempts attached to a section, one row
// per (student, subject).
func (r *SectionRepository) Roster(ctx context.Context, sectionID string) ([]models.SectionRosterRow, error) {
	const query = `SELECT st.student_no, u.first_name, u.last_name, s.code AS subject_code
        FROM subject_attempts a
        JOIN students st ON st.id = a.student_id
        JOIN users u ON u.id = st.user_id
        JOIN subjects s ON s.id = a.subject_id
        WHERE a.section_id = $1
        ORDER BY u.last_name ASC, u.first_name ASC, s.code ASC`
	var rows []models.SectionRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, sectionID); err != nil {
		return nil, fmt.Errorf("section roster: %w", err)
	}
	return rows, nil
}

// SetStatus updates a section's registration status.
func (r *SectionRepository) SetStatus(ctx context.Context, id string, status models.SectionStatus) error {
	const query = `UPDATE sections SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("set section status: %w", err)
	}
	return nil
}
