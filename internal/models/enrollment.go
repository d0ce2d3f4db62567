package models

import "time"

// EnrollmentStatus is the state of a term enrollment lock.
type EnrollmentStatus string

const (
	EnrollmentStatusDraft     EnrollmentStatus = "draft"
	EnrollmentStatusConfirmed EnrollmentStatus = "confirmed"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Enrollment is the unique (student, term) record created once a subject
// selection is confirmed. After confirmation it is immutable: no edits and no
// second enrollment for the same term.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	TermID     string           `db:"term_id" json:"term_id"`
	TotalUnits float64          `db:"total_units" json:"total_units"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches an enrollment with term context.
type EnrollmentDetail struct {
	Enrollment
	TermName    string    `db:"term_name" json:"term_name"`
	TermEndDate time.Time `db:"term_end_date" json:"term_end_date"`
}
