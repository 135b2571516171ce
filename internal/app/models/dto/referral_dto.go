package dto

import (
	"time"

	"github.com/yigit/careportal/internal/app/models"
)

// SubmitReferralRequest is a student's new counseling or support request.
type SubmitReferralRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=COUNSELING SUPPORT counseling support" example:"COUNSELING"`
	Category    string `json:"category" binding:"max=100" example:"Academic"`
	Reason      string `json:"reason" binding:"required,min=3,max=500"`
	Description string `json:"description" binding:"max=2000"`
}

// ForwardReferralRequest refers a request to the CARE Center.
type ForwardReferralRequest struct {
	Notes      string `json:"notes" binding:"max=2000"`
	Department string `json:"department" binding:"max=150"`
}

// ScheduleReferralRequest sets the session date.
type ScheduleReferralRequest struct {
	ScheduledDate time.Time `json:"scheduledDate" binding:"required" example:"2026-03-02T09:30:00Z"`
}

// ResolveReferralRequest carries notes for complete and reject.
type ResolveReferralRequest struct {
	Notes string `json:"notes" binding:"max=2000" example:"Advised on study plan"`
}

// RateReferralRequest is the post-completion rating.
type RateReferralRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5" example:"5"`
	Feedback string `json:"feedback" binding:"max=2000"`
}

// ReferralResponse is a request as shown to clients.
type ReferralResponse struct {
	ID                 string     `json:"id"`
	Kind               string     `json:"kind" example:"COUNSELING"`
	StudentID          string     `json:"studentId"`
	Status             string     `json:"status" example:"REFERRED"`
	StatusLabel        string     `json:"statusLabel" example:"Referred"`
	Category           string     `json:"category,omitempty"`
	Reason             string     `json:"reason"`
	Description        string     `json:"description,omitempty"`
	ReferredBy         *string    `json:"referredBy,omitempty"`
	ReferredByID       *string    `json:"referredById,omitempty"`
	ReferrerDepartment *string    `json:"referrerDepartment,omitempty"`
	ReferralNotes      *string    `json:"referralNotes,omitempty"`
	ScheduledDate      *time.Time `json:"scheduledDate,omitempty"`
	ScheduledBy        *string    `json:"scheduledBy,omitempty"`
	ScheduledByID      *string    `json:"scheduledById,omitempty"`
	ResolutionNotes    *string    `json:"resolutionNotes,omitempty"`
	Rating             *int       `json:"rating,omitempty"`
	Feedback           *string    `json:"feedback,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	Version            int64      `json:"version"`
}

// NewReferralResponse maps the model and attaches the display label.
func NewReferralResponse(r *models.ReferralRequest) ReferralResponse {
	return ReferralResponse{
		ID:                 r.ID,
		Kind:               string(r.Kind),
		StudentID:          r.StudentID,
		Status:             string(r.Status),
		StatusLabel:        r.Status.Label(),
		Category:           r.Category,
		Reason:             r.Reason,
		Description:        r.Description,
		ReferredBy:         r.ReferredBy,
		ReferredByID:       r.ReferredByID,
		ReferrerDepartment: r.ReferrerDepartment,
		ReferralNotes:      r.ReferralNotes,
		ScheduledDate:      r.ScheduledDate,
		ScheduledBy:        r.ScheduledBy,
		ScheduledByID:      r.ScheduledByID,
		ResolutionNotes:    r.ResolutionNotes,
		Rating:             r.Rating,
		Feedback:           r.Feedback,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
	}
}

// NewReferralResponses maps a listing.
func NewReferralResponses(items []*models.ReferralRequest) []ReferralResponse {
	out := make([]ReferralResponse, 0, len(items))
	for _, r := range items {
		out = append(out, NewReferralResponse(r))
	}
	return out
}
