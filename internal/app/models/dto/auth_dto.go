package dto

import "github.com/yigit/careportal/internal/app/models"

// Login portals
const (
	PortalApplicant = "applicant"
	PortalStudent   = "student"
	PortalStaff     = "staff"
)

// LoginRequest represents login credentials. Identifier is the generated
// username for applicants, the student ID for students and the email for
// staff.
type LoginRequest struct {
	Portal     string `json:"portal" binding:"required,oneof=applicant student staff" example:"student"`
	Identifier string `json:"identifier" binding:"required" example:"2026-0001"`
	Password   string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// ActorData is the authenticated identity returned to the client.
type ActorData struct {
	Role       string `json:"role" example:"STUDENT" enums:"APPLICANT,STUDENT,DEPARTMENT_REFERRER,CARE_STAFF"`
	SubjectID  string `json:"subjectId" example:"2026-0001"`
	Email      string `json:"email" example:"ana.cruz@example.edu"`
	Name       string `json:"name,omitempty" example:"Ana Cruz"`
	Department string `json:"department,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  ActorData     `json:"user"`
}

// CreateStaffRequest creates a console account.
type CreateStaffRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"fullName" binding:"required,min=2,max=100"`
	Role       string `json:"role" binding:"required,oneof=CARE_STAFF DEPARTMENT_REFERRER"`
	Department string `json:"department" binding:"required_if=Role DEPARTMENT_REFERRER"`
}

// StaffResponse is a console account without its credentials.
type StaffResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

// NewActorData converts an actor for the response body.
func NewActorData(actor models.Actor) ActorData {
	return ActorData{
		Role:       string(actor.Role),
		SubjectID:  actor.SubjectID,
		Email:      actor.Email,
		Name:       actor.Name,
		Department: actor.Department,
	}
}

// NewStaffResponse converts a staff account for the response body.
func NewStaffResponse(a *models.StaffAccount) StaffResponse {
	return StaffResponse{
		ID:         a.ID,
		Email:      a.Email,
		FullName:   a.FullName,
		Role:       string(a.Role),
		Department: a.Department,
	}
}
