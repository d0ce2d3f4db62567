package models

import (
	"fmt"
	"time"
)

// Curriculum is a versioned subject plan for a program. At most one curriculum
// per program is active at a time; activation is enforced at the store level.
type Curriculum struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Version     string    `db:"version" json:"version"`
	EffectiveSY string    `db:"effective_sy" json:"effective_sy"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Term numbers within a school year. The summer term counts as a third slot.
const (
	TermNoFirst  = 1
	TermNoSecond = 2
	TermNoSummer = 3
)

// CurriculumLevel is a (year, term) placement within a curriculum.
type CurriculumLevel struct {
	Year   int `json:"year"`
	TermNo int `json:"term_no"`
}

// Before reports whether l sorts strictly before other, year first.
func (l CurriculumLevel) Before(other CurriculumLevel) bool {
	if l.Year != other.Year {
		return l.Year < other.Year
	}
	return l.TermNo < other.TermNo
}

// Next returns the level one enrollment step ahead: the second term of the
// same year after the first term, otherwise the first term of the next year.
func (l CurriculumLevel) Next() CurriculumLevel {
	if l.TermNo == TermNoFirst {
		return CurriculumLevel{Year: l.Year, TermNo: TermNoSecond}
	}
	return CurriculumLevel{Year: l.Year + 1, TermNo: TermNoFirst}
}

// String renders the level for user-facing blocking reasons.
func (l CurriculumLevel) String() string {
	return fmt.Sprintf("Year %d, Term %d", l.Year, l.TermNo)
}

// CurriculumSubject places a subject at a (year, term) slot of a curriculum.
type CurriculumSubject struct {
	ID            string    `db:"id" json:"id"`
	CurriculumID  string    `db:"curriculum_id" json:"curriculum_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	YearLevel     int       `db:"year_level" json:"year_level"`
	TermNo        int       `db:"term_no" json:"term_no"`
	IsRecommended bool      `db:"is_recommended" json:"is_recommended"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Level returns the curriculum placement as a CurriculumLevel.
func (cs CurriculumSubject) Level() CurriculumLevel {
	return CurriculumLevel{Year: cs.YearLevel, TermNo: cs.TermNo}
}

// CurriculumSubjectDetail enriches a placement with its subject record.
type CurriculumSubjectDetail struct {
	CurriculumSubject
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SubjectTitle string  `db:"subject_title" json:"subject_title"`
	Units        float64 `db:"units" json:"units"`
}
