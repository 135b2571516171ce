package dto

import (
	"time"

	"github.com/yigit/careportal/internal/app/models"
)

// IdentityRequest holds the identity and demographic fields of the intake
// form.
type IdentityRequest struct {
	FirstName        string `json:"firstName" binding:"required,min=1,max=100"`
	MiddleName       string `json:"middleName" binding:"max=100"`
	LastName         string `json:"lastName" binding:"required,min=1,max=100"`
	Suffix           string `json:"suffix" binding:"max=20"`
	Email            string `json:"email" binding:"required,email"`
	ContactNumber    string `json:"contactNumber" binding:"max=30"`
	Sex              string `json:"sex" binding:"omitempty,oneof=Male Female"`
	Birthdate        string `json:"birthdate" binding:"omitempty,isodate" example:"2007-05-14"`
	Address          string `json:"address" binding:"max=300"`
	IsPWD            bool   `json:"isPwd"`
	Disability       string `json:"disability" binding:"max=200"`
	IsIndigenous     bool   `json:"isIndigenous"`
	IsSoloParent     bool   `json:"isSoloParent"`
	IsWorkingStudent bool   `json:"isWorkingStudent"`
}

// SubmitApplicationRequest is the public admission form.
type SubmitApplicationRequest struct {
	IdentityRequest
	FirstChoice  string     `json:"firstChoice" binding:"required,max=150" example:"BS Information Technology"`
	SecondChoice string     `json:"secondChoice" binding:"max=150"`
	ThirdChoice  string     `json:"thirdChoice" binding:"max=150"`
	TestDate     *time.Time `json:"testDate"`
}

// Identity converts the form fields into the shared identity block.
func (r IdentityRequest) Identity() models.Identity {
	id := models.Identity{
		FirstName:        r.FirstName,
		MiddleName:       r.MiddleName,
		LastName:         r.LastName,
		Suffix:           r.Suffix,
		Email:            r.Email,
		ContactNumber:    r.ContactNumber,
		Sex:              r.Sex,
		Address:          r.Address,
		IsPWD:            r.IsPWD,
		Disability:       r.Disability,
		IsIndigenous:     r.IsIndigenous,
		IsSoloParent:     r.IsSoloParent,
		IsWorkingStudent: r.IsWorkingStudent,
	}
	if r.Birthdate != "" {
		b := r.Birthdate
		id.Birthdate = &b
	}
	return id
}

// Preferences returns the ranked course choices.
func (r SubmitApplicationRequest) Preferences() models.CoursePreferences {
	return models.CoursePreferences{
		FirstChoice:  r.FirstChoice,
		SecondChoice: r.SecondChoice,
		ThirdChoice:  r.ThirdChoice,
	}
}

// UpdateApplicationStatusRequest is a staff status change.
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" binding:"required" example:"PASSED"`
}

// ActivateRequest claims a student ID for a passed application.
type ActivateRequest struct {
	StudentID string `json:"studentId" binding:"required,studentid" example:"2026-0001"`
	Course    string `json:"course" binding:"max=150" example:"BS Information Technology"`
}

// ApplicationResponse is an Application as shown to clients.
type ApplicationResponse struct {
	ID string `json:"id"`
	models.Identity
	models.CoursePreferences
	TestDate    *time.Time `json:"testDate,omitempty"`
	Username    string     `json:"username"`
	Status      string     `json:"status" example:"TEST_TAKEN"`
	StatusLabel string     `json:"statusLabel" example:"Test Taken"`
	TimeIn      *time.Time `json:"timeIn,omitempty"`
	TimeOut     *time.Time `json:"timeOut,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Version     int64      `json:"version"`
}

// ApplicationCreatedResponse returns the generated credentials once.
type ApplicationCreatedResponse struct {
	Application ApplicationResponse `json:"application"`
	Username    string              `json:"username" example:"A2026-3F9C1B2E"`
	Password    string              `json:"password"`
}

// ActivationResponse reports a completed activation.
type ActivationResponse struct {
	Student StudentResponse `json:"student"`
	Outcome string          `json:"outcome" example:"Granted" enums:"Granted,AlreadyOwnedByClaimant"`
	Created bool            `json:"created"`
}

// NewApplicationResponse maps the model and attaches the display label.
func NewApplicationResponse(a *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                a.ID,
		Identity:          a.Identity,
		CoursePreferences: a.CoursePreferences,
		TestDate:          a.TestDate,
		Username:          a.Username,
		Status:            string(a.Status),
		StatusLabel:       a.Status.Label(),
		TimeIn:            a.TimeIn,
		TimeOut:           a.TimeOut,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
		Version:           a.Version,
	}
}

// NewApplicationResponses maps a listing.
func NewApplicationResponses(apps []*models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, NewApplicationResponse(a))
	}
	return out
}
