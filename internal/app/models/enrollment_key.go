package models

import "time"

// EnrollmentKey is the single-use claim ticket gating activation of a
// student id for a course.
type EnrollmentKey struct {
	StudentID       string    `json:"studentId" db:"student_id"`
	Course          string    `json:"course" db:"course"`
	IsUsed          bool      `json:"isUsed" db:"is_used"`
	AssignedToEmail *string   `json:"assignedToEmail,omitempty" db:"assigned_to_email"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// RosterEntry is a registrar record used to synthesize a missing key.
type RosterEntry struct {
	StudentID string `json:"studentId" db:"student_id"`
	Course    string `json:"course" db:"course"`
	FullName  string `json:"fullName" db:"full_name"`
}
