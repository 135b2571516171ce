package models

import "time"

// Application is a pre-enrollment applicant record. It is deleted once
// consumed by a successful activation.
type Application struct {
	ID string `json:"id" db:"id"`
	Identity
	CoursePreferences
	TestDate     *time.Time        `json:"testDate,omitempty" db:"test_date"`
	Username     string            `json:"username" db:"username"`
	PasswordHash string            `json:"-" db:"password_hash"`
	Status       ApplicationStatus `json:"status" db:"status"`
	TimeIn       *time.Time        `json:"timeIn,omitempty" db:"time_in"`
	TimeOut      *time.Time        `json:"timeOut,omitempty" db:"time_out"`
	// StudentID is set only by activation, immediately before deletion.
	StudentID *string   `json:"studentId,omitempty" db:"student_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int64     `json:"version" db:"version"`
}

// ApplicationPatch lists the columns a status change may touch.
type ApplicationPatch struct {
	Status  ApplicationStatus
	TimeIn  *time.Time
	TimeOut *time.Time
}

// ApplicationFilter narrows staff console listings.
type ApplicationFilter struct {
	Status ApplicationStatus
	Offset uint64
	Limit  int
}
