package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/richwell-portal/registrar-api/internal/models"
)

// TermRepository handles persistence of academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, name, level, start_date, end_date, add_drop_deadline,
        grade_encoding_deadline, is_active, archived, created_at`

// FindByID returns a term by its ID.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf(`SELECT %s FROM terms WHERE id = $1`, termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindActiveByLevel returns the active, non-archived term for a program
// level. Each level carries its own active term independently.
func (r *TermRepository) FindActiveByLevel(ctx context.Context, level models.ProgramLevel) (*models.Term, error) {
	query := fmt.Sprintf(`SELECT %s FROM terms
        WHERE is_active = TRUE AND archived = FALSE AND level = $1
        ORDER BY start_date DESC LIMIT 1`, termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, level); err != nil {
		return nil, err
	}
	return &term, nil
}

// List returns terms filtered by the provided criteria.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Archived != nil {
		conditions = append(conditions, fmt.Sprintf("archived = $%d", len(args)+1))
		args = append(args, *filter.Archived)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM terms%s ORDER BY level ASC, start_date %s LIMIT %d OFFSET %d`,
		termColumns, clause, order, size, offset)

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM terms" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}
	return terms, total, nil
}

// Activate makes a term the active one for its level, deactivating every
// other term of the same level in the same transaction.
func (r *TermRepository) Activate(ctx context.Context, id string, level models.ProgramLevel) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin term activation tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE terms SET is_active = FALSE WHERE level = $1`, level); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("deactivate level terms: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE terms SET is_active = TRUE WHERE id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("activate term: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit term activation: %w", err)
	}
	return nil
}

// Close deactivates a term.
func (r *TermRepository) Close(ctx context.Context, id string) error {
	const query = `UPDATE terms SET is_active = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("close term: %w", err)
	}
	return nil
}
