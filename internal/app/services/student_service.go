package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/catalog"
	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// ProfileUpdate is a requested profile edit. Students may change contact
// details only; staff may also change academic placement.
type ProfileUpdate struct {
	ExpectedVersion int64
	ContactNumber   *string
	Address         *string
	Course          *string
	YearLevel       *string
	Section         *string
	Status          *models.StudentStatus
}

func (u ProfileUpdate) touchesAcademics() bool {
	return u.Course != nil || u.YearLevel != nil || u.Section != nil || u.Status != nil
}

// StudentService serves Student profiles after activation.
type StudentService struct {
	students  StudentStore
	publisher Publisher
	logger    zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(students StudentStore, publisher Publisher, logger zerolog.Logger) *StudentService {
	return &StudentService{students: students, publisher: publisher, logger: logger}
}

// GetProfile returns a profile to its owner or to staff.
func (s *StudentService) GetProfile(ctx context.Context, actor models.Actor, studentID string) (*models.Student, error) {
	if !actor.Role.IsStaff() && !actor.Owns(studentID) {
		return nil, apperrors.NewForbiddenError("not allowed to view this profile")
	}
	return s.students.GetStudent(ctx, studentID)
}

// UpdateProfile applies an edit conditionally on ExpectedVersion. A course
// change re-derives the department from the catalog.
func (s *StudentService) UpdateProfile(ctx context.Context, actor models.Actor, studentID string, update ProfileUpdate) (*models.Student, error) {
	switch {
	case actor.Role.IsStaff():
	case actor.Owns(studentID):
		if update.touchesAcademics() {
			return nil, apperrors.NewForbiddenError("students may only edit contact details")
		}
	default:
		return nil, apperrors.NewForbiddenError("not allowed to edit this profile")
	}
	if update.Status != nil && *update.Status != models.StudentActive && *update.Status != models.StudentInactive {
		return nil, apperrors.NewValidationError("status must be ACTIVE or INACTIVE")
	}

	patch := models.StudentPatch{
		ContactNumber: update.ContactNumber,
		Address:       update.Address,
		YearLevel:     update.YearLevel,
		Section:       update.Section,
		Status:        update.Status,
	}
	if update.Course != nil {
		course := strings.TrimSpace(*update.Course)
		if course == "" {
			return nil, apperrors.NewValidationError("course cannot be empty")
		}
		department := catalog.DepartmentFor(course)
		patch.Course = &course
		patch.Department = &department
	}

	updated, err := s.students.UpdateStudent(ctx, studentID, update.ExpectedVersion, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("studentID", studentID).
		Str("actorRole", string(actor.Role)).
		Int64("version", updated.Version).
		Msg("Student profile updated")
	publish(s.publisher, feed.NewChange(websocket.EventUpdate, models.TableStudents, updated.StudentID, updated.StudentID, updated.Version, updated))
	return updated, nil
}
