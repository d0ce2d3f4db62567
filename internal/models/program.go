package models

import "time"

// ProgramLevel classifies the academic level a program belongs to. Terms are
// activated independently per level, so SHS and Masteral can run concurrently.
type ProgramLevel string

const (
	ProgramLevelSHS      ProgramLevel = "SHS"
	ProgramLevelCollege  ProgramLevel = "College"
	ProgramLevelBachelor ProgramLevel = "Bachelor"
	ProgramLevelMasteral ProgramLevel = "Masteral"
)

// Program represents a degree program offered by the institution.
// PassingGrade is the per-program numeric cutoff: a grade passes when its
// numeric value meets or exceeds this threshold.
type Program struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Level        ProgramLevel `db:"level" json:"level"`
	PassingGrade float64      `db:"passing_grade" json:"passing_grade"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
