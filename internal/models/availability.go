package models

// AvailabilityTag classifies a curriculum subject for a student and term.
type AvailabilityTag string

const (
	AvailabilityReady       AvailabilityTag = "ready"
	AvailabilityIncPrereq   AvailabilityTag = "inc_prerequisite"
	AvailabilityUnmetPrereq AvailabilityTag = "unmet_prerequisite"
	AvailabilityTaken       AvailabilityTag = "already_taken"
	AvailabilityFutureLevel AvailabilityTag = "future_level"
)

// SubjectAvailability annotates one curriculum subject with the student's
// standing toward it. Reason is the human-readable blocking explanation;
// Unmet and WithIncomplete carry the raw lists for programmatic use.
type SubjectAvailability struct {
	Subject        Subject            `json:"subject"`
	Level          CurriculumLevel    `json:"level"`
	StudentLevel   CurriculumLevel    `json:"student_level"`
	Visible        bool               `json:"visible"`
	Tag            AvailabilityTag    `json:"tag"`
	Reason         string             `json:"reason,omitempty"`
	Unmet          []Subject          `json:"unmet,omitempty"`
	WithIncomplete []IncompletePrereq `json:"with_incomplete,omitempty"`
}

// AvailabilityPlan is the planner's full answer for a student and term.
type AvailabilityPlan struct {
	Subjects      []SubjectAvailability `json:"subjects"`
	HasIncomplete bool                  `json:"has_incomplete"`
}
