package models

import "time"

// ReferralRequest is a counseling or support request owned by one student.
// Requests are never deleted; terminal states remain as history.
type ReferralRequest struct {
	ID                 string        `json:"id" db:"id"`
	Kind               RequestKind   `json:"kind" db:"kind"`
	StudentID          string        `json:"studentId" db:"student_id"`
	Status             RequestStatus `json:"status" db:"status"`
	Category           string        `json:"category,omitempty" db:"category"`
	Reason             string        `json:"reason" db:"reason"`
	Description        string        `json:"description,omitempty" db:"description"`
	ReferredBy         *string       `json:"referredBy,omitempty" db:"referred_by"`
	ReferredByID       *string       `json:"referredById,omitempty" db:"referred_by_id"`
	ReferrerDepartment *string       `json:"referrerDepartment,omitempty" db:"referrer_department"`
	ReferralNotes      *string       `json:"referralNotes,omitempty" db:"referral_notes"`
	ScheduledDate      *time.Time    `json:"scheduledDate,omitempty" db:"scheduled_date"`
	ScheduledBy        *string       `json:"scheduledBy,omitempty" db:"scheduled_by"`
	ScheduledByID      *string       `json:"scheduledById,omitempty" db:"scheduled_by_id"`
	ResolutionNotes    *string       `json:"resolutionNotes,omitempty" db:"resolution_notes"`
	Rating             *int          `json:"rating,omitempty" db:"rating"`
	Feedback           *string       `json:"feedback,omitempty" db:"feedback"`
	CreatedAt          time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time     `json:"updatedAt" db:"updated_at"`
	Version            int64         `json:"version" db:"version"`
}

// Rated reports whether a rating has already been attached.
func (r *ReferralRequest) Rated() bool {
	return r.Rating != nil
}

// ReferralPatch carries the columns a transition stamps. Nil fields are left
// untouched.
type ReferralPatch struct {
	Status             RequestStatus
	ReferredBy         *string
	ReferredByID       *string
	ReferrerDepartment *string
	ReferralNotes      *string
	ScheduledDate      *time.Time
	ScheduledBy        *string
	ScheduledByID      *string
	ResolutionNotes    *string
	Rating             *int
	Feedback           *string
}

// ReferralFilter narrows staff console listings.
type ReferralFilter struct {
	Kind      RequestKind
	Status    RequestStatus
	StudentID string
	Offset    uint64
	Limit     int
}

// ReferralPrecondition is re-checked by the store at write time. A write
// whose precondition no longer holds fails with a write conflict.
type ReferralPrecondition struct {
	Status  RequestStatus
	Unrated bool
}
