package models

import "time"

// DefaultYearLevel is assigned to every freshly activated student.
const DefaultYearLevel = "1st Year"

// Student is the durable post-activation profile, keyed by student id.
type Student struct {
	StudentID string `json:"studentId" db:"student_id"`
	Identity
	CoursePreferences
	Course       string        `json:"course" db:"course"`
	Department   string        `json:"department" db:"department"`
	YearLevel    string        `json:"yearLevel" db:"year_level"`
	Section      string        `json:"section,omitempty" db:"section"`
	Status       StudentStatus `json:"status" db:"status"`
	PasswordHash string        `json:"-" db:"password_hash"`
	ActivatedAt  time.Time     `json:"activatedAt" db:"activated_at"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
	Version      int64         `json:"version" db:"version"`
}

// StudentPatch lists the profile fields editable after activation. Nil
// fields are left untouched.
type StudentPatch struct {
	ContactNumber *string
	Address       *string
	Course        *string
	Department    *string
	YearLevel     *string
	Section       *string
	Status        *StudentStatus
}
