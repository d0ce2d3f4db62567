package models

// PrereqState tags the evaluation outcome for one direct prerequisite.
// IncompleteBlocking means the prerequisite attempt is administratively
// incomplete while carrying a passing grade: it changes the reason shown to
// the student, never the outcome — the prerequisite still counts as unmet.
type PrereqState string

const (
	PrereqSatisfied          PrereqState = "satisfied"
	PrereqUnmet              PrereqState = "unmet"
	PrereqIncompleteBlocking PrereqState = "incomplete_blocking"
)

// PrereqCheck is the evaluated state of one direct prerequisite edge.
type PrereqCheck struct {
	Subject Subject     `json:"subject"`
	State   PrereqState `json:"state"`
	Grade   *float64    `json:"grade,omitempty"`
}

// Blocking reports whether this prerequisite prevents enrollment.
func (p PrereqCheck) Blocking() bool {
	return p.State != PrereqSatisfied
}

// IncompletePrereq pairs a blocking incomplete prerequisite with its grade.
type IncompletePrereq struct {
	Subject Subject `json:"subject"`
	Grade   float64 `json:"grade"`
}

// EligibilityResult is the prerequisite evaluator's verdict for one subject.
type EligibilityResult struct {
	SubjectID string        `json:"subject_id"`
	CanTake   bool          `json:"can_take"`
	Prereqs   []PrereqCheck `json:"prereqs"`
}

// Unmet lists every prerequisite that blocks enrollment, including the
// incomplete-but-passing ones.
func (r EligibilityResult) Unmet() []Subject {
	var out []Subject
	for _, p := range r.Prereqs {
		if p.Blocking() {
			out = append(out, p.Subject)
		}
	}
	return out
}

// WithIncomplete lists prerequisites blocked only by incomplete status, with
// the passing grades they already carry.
func (r EligibilityResult) WithIncomplete() []IncompletePrereq {
	var out []IncompletePrereq
	for _, p := range r.Prereqs {
		if p.State == PrereqIncompleteBlocking && p.Grade != nil {
			out = append(out, IncompletePrereq{Subject: p.Subject, Grade: *p.Grade})
		}
	}
	return out
}

// EnrollReason is the outcome code of the enrollment gate.
type EnrollReason string

const (
	EnrollEligible         EnrollReason = "eligible"
	EnrollClosed           EnrollReason = "enrollment_closed"
	EnrollStudentNotActive EnrollReason = "student_not_active"
	EnrollAlreadyEnrolled  EnrollReason = "already_enrolled"
	EnrollStatusError      EnrollReason = "enrollment_status_error"
	EnrollUngradedSubjects EnrollReason = "ungraded_subjects"
)

// UngradedSubject identifies a prior-term attempt still waiting for a grade.
type UngradedSubject struct {
	SubjectID string        `json:"subject_id"`
	Code      string        `json:"code"`
	Status    AttemptStatus `json:"status"`
}

// EnrollDecision is the gate's answer: whether the student may open a new
// enrollment this term, and why not when they may not.
type EnrollDecision struct {
	Allowed  bool              `json:"allowed"`
	Reason   EnrollReason      `json:"reason"`
	Ungraded []UngradedSubject `json:"ungraded,omitempty"`
}
