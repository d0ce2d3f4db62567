package models

import "time"

// Term models an academic term. Activation is scoped per program level: one
// Bachelor term and one Masteral term can both be active at the same time.
type Term struct {
	ID                    string       `db:"id" json:"id"`
	Name                  string       `db:"name" json:"name"`
	Level                 ProgramLevel `db:"level" json:"level"`
	StartDate             time.Time    `db:"start_date" json:"start_date"`
	EndDate               time.Time    `db:"end_date" json:"end_date"`
	AddDropDeadline       *time.Time   `db:"add_drop_deadline" json:"add_drop_deadline,omitempty"`
	GradeEncodingDeadline *time.Time   `db:"grade_encoding_deadline" json:"grade_encoding_deadline,omitempty"`
	IsActive              bool         `db:"is_active" json:"is_active"`
	Archived              bool         `db:"archived" json:"archived"`
	CreatedAt             time.Time    `db:"created_at" json:"created_at"`
}

// TermFilter defines filters supported by term list endpoints.
type TermFilter struct {
	Level     ProgramLevel
	IsActive  *bool
	Archived  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
