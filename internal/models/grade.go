package models

import (
	"strconv"
	"time"
)

// Grade is one posted grade value for a subject attempt. Values are stored as
// strings because the grading scale is institution-defined (1.00–5.00 here);
// the numeric convention is "meets or exceeds the program threshold = pass".
type Grade struct {
	ID          string    `db:"id" json:"id"`
	AttemptID   string    `db:"attempt_id" json:"attempt_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	ProfessorID string    `db:"professor_id" json:"professor_id"`
	Value       string    `db:"grade" json:"grade"`
	PostedAt    time.Time `db:"posted_at" json:"posted_at"`
}

// Numeric parses the posted value. Non-numeric markers ("INC", "DRP") are
// reported via the ok flag rather than an error.
func (g Grade) Numeric() (float64, bool) {
	v, err := strconv.ParseFloat(g.Value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
