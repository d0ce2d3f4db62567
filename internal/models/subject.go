package models

import "time"

// Subject represents an academic subject owned by a program.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Units       float64   `db:"units" json:"units"`
	Active      bool      `db:"active" json:"active"`
	Archived    bool      `db:"archived" json:"archived"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Prereq is a directed edge: taking Subject requires PrereqSubject first.
// Chains of arbitrary depth are allowed; only direct edges are evaluated per
// subject, so transitive gating emerges level by level.
type Prereq struct {
	ID             string `db:"id" json:"id"`
	SubjectID      string `db:"subject_id" json:"subject_id"`
	PrereqSubjectID string `db:"prereq_subject_id" json:"prereq_subject_id"`
}
