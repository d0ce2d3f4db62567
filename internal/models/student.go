package models

import "time"

// StudentStatus is the standing of a student record.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
)

// Student links an account to a program and curriculum. CurriculumID stays
// nil until the registrar assigns one.
type Student struct {
	ID                 string        `db:"id" json:"id"`
	UserID             string        `db:"user_id" json:"user_id"`
	StudentNo          string        `db:"student_no" json:"student_no"`
	ProgramID          string        `db:"program_id" json:"program_id"`
	CurriculumID       *string       `db:"curriculum_id" json:"curriculum_id,omitempty"`
	Status             StudentStatus `db:"status" json:"status"`
	OnboardingComplete bool          `db:"onboarding_complete" json:"onboarding_complete"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
}

// StudentDetail carries the program context every eligibility decision needs:
// the program level selects the active term, the passing grade drives the
// prerequisite evaluator.
type StudentDetail struct {
	Student
	ProgramName  string       `db:"program_name" json:"program_name"`
	ProgramLevel ProgramLevel `db:"program_level" json:"program_level"`
	PassingGrade float64      `db:"passing_grade" json:"passing_grade"`
}
