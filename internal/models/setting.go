package models

import (
	"strconv"
	"time"
)

// Well-known setting keys.
const (
	SettingEnrollmentOpen = "enrollment_open"
)

// Setting is one key/value portal configuration entry. The enrollment-open
// switch lives here so registrars can toggle it without a deploy.
type Setting struct {
	Key         string    `db:"key_name" json:"key"`
	Value       string    `db:"value_text" json:"value"`
	Description string    `db:"description" json:"description,omitempty"`
	UpdatedBy   *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Bool interprets the value as a boolean flag; unparseable values are false.
func (s Setting) Bool() bool {
	v, err := strconv.ParseBool(s.Value)
	if err != nil {
		return false
	}
	return v
}
