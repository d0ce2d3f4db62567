package models

import "time"

// SectionStatus is the registration state of a section.
type SectionStatus string

const (
	SectionStatusOpen   SectionStatus = "open"
	SectionStatusFull   SectionStatus = "full"
	SectionStatusClosed SectionStatus = "closed"
)

// Section is a scheduled offering within a term. Subjects and professors are
// attached through join tables; a section may carry several of each.
type Section struct {
	ID        string        `db:"id" json:"id"`
	TermID    string        `db:"term_id" json:"term_id"`
	Code      string        `db:"code" json:"code"`
	Capacity  int           `db:"capacity" json:"capacity"`
	Status    SectionStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// SectionRosterRow is one enrolled student on a section's class list.
type SectionRosterRow struct {
	StudentNo   string `db:"student_no" json:"student_no"`
	FirstName   string `db:"first_name" json:"first_name"`
	LastName    string `db:"last_name" json:"last_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
}
