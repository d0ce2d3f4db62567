package models

import "time"

// AuditAction constants for registrar-portal mutations.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionConfirmEnroll    = "CONFIRM_ENROLLMENT"
	AuditActionPostGrade        = "POST_GRADE"
	AuditActionTermActivate     = "TERM_ACTIVATE"
	AuditActionTermClose        = "TERM_CLOSE"
	AuditActionSettingUpdate    = "SETTING_UPDATE"
	AuditActionOrphanCleanup    = "ORPHAN_ENROLLMENT_CLEANUP"
	AuditActionSectionStatusSet = "SECTION_STATUS_SET"
)

// AuditTrail is one audit record. Old and new values are JSON snapshots.
type AuditTrail struct {
	ID        string    `db:"id" json:"id"`
	ActorID   *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  *string   `db:"entity_id" json:"entity_id,omitempty"`
	OldValues []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
