package models

import "time"

// AttemptStatus is the lifecycle state of a subject attempt. The committer
// only ever writes "enrolled"; every later transition belongs to the grading
// workflow.
type AttemptStatus string

const (
	AttemptStatusEnrolled   AttemptStatus = "enrolled"
	AttemptStatusCompleted  AttemptStatus = "completed"
	AttemptStatusFailed     AttemptStatus = "failed"
	AttemptStatusIncomplete AttemptStatus = "inc"
	AttemptStatusRepeat     AttemptStatus = "repeat_required"
)

// SubjectAttempt is one (student, subject, term) enrollment record. Section
// and professor are assigned opportunistically at commit time and may stay
// nil until the registrar fills them in.
type SubjectAttempt struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	SubjectID   string        `db:"subject_id" json:"subject_id"`
	TermID      string        `db:"term_id" json:"term_id"`
	SectionID   *string       `db:"section_id" json:"section_id,omitempty"`
	ProfessorID *string       `db:"professor_id" json:"professor_id,omitempty"`
	Status      AttemptStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// SubjectAttemptDetail enriches an attempt with subject and term context.
type SubjectAttemptDetail struct {
	SubjectAttempt
	SubjectCode  string    `db:"subject_code" json:"subject_code"`
	SubjectTitle string    `db:"subject_title" json:"subject_title"`
	Units        float64   `db:"units" json:"units"`
	TermName     string    `db:"term_name" json:"term_name"`
	TermEndDate  time.Time `db:"term_end_date" json:"term_end_date"`
	SectionCode  *string   `db:"section_code" json:"section_code,omitempty"`
}
