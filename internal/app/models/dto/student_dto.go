package dto

import (
	"time"

	"github.com/yigit/careportal/internal/app/models"
)

// StudentResponse is a Student profile as shown to clients.
type StudentResponse struct {
	StudentID string `json:"studentId" example:"2026-0001"`
	models.Identity
	models.CoursePreferences
	Course      string    `json:"course" example:"BS Information Technology"`
	Department  string    `json:"department" example:"College of Information Technology"`
	YearLevel   string    `json:"yearLevel" example:"1st Year"`
	Section     string    `json:"section,omitempty"`
	Status      string    `json:"status" example:"ACTIVE"`
	ActivatedAt time.Time `json:"activatedAt"`
	Version     int64     `json:"version"`
}

// NewStudentResponse maps the model.
func NewStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		StudentID:         s.StudentID,
		Identity:          s.Identity,
		CoursePreferences: s.CoursePreferences,
		Course:            s.Course,
		Department:        s.Department,
		YearLevel:         s.YearLevel,
		Section:           s.Section,
		Status:            string(s.Status),
		ActivatedAt:       s.ActivatedAt,
		Version:           s.Version,
	}
}

// UpdateProfileRequest edits a profile. Students may only send contact
// fields; the academic fields are accepted from staff.
type UpdateProfileRequest struct {
	Version       int64   `json:"version" binding:"required,min=1" example:"3"`
	ContactNumber *string `json:"contactNumber" binding:"omitempty,max=30"`
	Address       *string `json:"address" binding:"omitempty,max=300"`
	Course        *string `json:"course" binding:"omitempty,min=2,max=150"`
	YearLevel     *string `json:"yearLevel" binding:"omitempty,max=20"`
	Section       *string `json:"section" binding:"omitempty,max=20"`
	Status        *string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// DepartmentResponse is one catalog department.
type DepartmentResponse struct {
	Name string `json:"name" example:"College of Information Technology"`
}
