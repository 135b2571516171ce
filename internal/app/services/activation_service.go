package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/catalog"
	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/lifecycle"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/email"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// ActivationRequest names the Application to promote and the claimed
// student id and course. An empty Course falls back to the first choice.
type ActivationRequest struct {
	ApplicationID string
	StudentID     string
	Course        string
}

// ActivationResult is returned by a successful activation.
type ActivationResult struct {
	Student *models.Student
	Outcome KeyOutcome
	// Created is false when an existing profile was updated.
	Created  bool
	Warnings []string
}

// ActivationService promotes a passed Application into a Student exactly
// once.
//
// Order of writes: claim key, upsert student, stamp application, delete
// application. The upsert is idempotent, so every step before the delete
// can be retried; the original claimant re-enters through
// AlreadyOwnedByClaimant.
type ActivationService struct {
	applications ApplicationStore
	students     StudentStore
	guard        *KeyGuard
	publisher    Publisher
	notify       notifier
	logger       zerolog.Logger
	now          func() time.Time
}

// NewActivationService creates a new ActivationService
func NewActivationService(
	applications ApplicationStore,
	students StudentStore,
	guard *KeyGuard,
	publisher Publisher,
	dispatcher Notifier,
	notifyTimeout time.Duration,
	logger zerolog.Logger,
) *ActivationService {
	return &ActivationService{
		applications: applications,
		students:     students,
		guard:        guard,
		publisher:    publisher,
		notify:       newNotifier(dispatcher, notifyTimeout, logger),
		logger:       logger,
		now:          time.Now,
	}
}

// Activate runs the activation sequence for actor. Applicants may only
// activate their own Application; CARE staff may activate any.
func (s *ActivationService) Activate(ctx context.Context, actor models.Actor, req ActivationRequest) (*ActivationResult, error) {
	log := s.logger.With().
		Str("applicationID", req.ApplicationID).
		Str("studentID", req.StudentID).
		Str("actorRole", string(actor.Role)).
		Logger()

	switch actor.Role {
	case models.RoleCareStaff:
	case models.RoleApplicant:
		if actor.SubjectID != req.ApplicationID {
			return nil, apperrors.NewForbiddenError("applicants may only activate their own application")
		}
	default:
		return nil, apperrors.NewForbiddenError("role " + string(actor.Role) + " may not activate applications")
	}

	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return nil, apperrors.NewValidationError("student ID is required")
	}

	app, err := s.applications.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.EligibleForActivation(app.Status) {
		return nil, apperrors.NewCustomError(apperrors.ErrNotEligible,
			fmt.Sprintf("only passed applications can be activated, current status is %s", app.Status.Label())).
			WithCode(string(lifecycle.ReasonInvalidStateTransition))
	}
	if app.StudentID != nil && *app.StudentID != studentID {
		return nil, KeyConflictOwnedByOther.Err(studentID)
	}

	course := strings.TrimSpace(req.Course)
	if course == "" {
		course = app.FirstChoice
	}

	outcome, err := s.guard.Acquire(ctx, KeyClaim{
		StudentID:     studentID,
		Course:        course,
		Email:         app.Email,
		ApplicationID: app.ID,
	})
	if err != nil {
		return nil, err
	}
	if !outcome.Succeeded() {
		return nil, outcome.Err(studentID)
	}

	student := buildStudent(app, studentID, course, s.now().UTC())
	created, err := s.students.UpsertStudent(ctx, student)
	if errors.Is(err, apperrors.ErrConflictOwnedByOther) {
		log.Warn().Msg("Student profile belongs to another account")
		return nil, KeyConflictOwnedByOther.Err(studentID)
	}
	if err != nil {
		log.Error().Err(err).Msg("Student upsert failed")
		// The store refuses the release once any profile exists for the id.
		if outcome == KeyGranted {
			if relErr := s.guard.Release(ctx, studentID, app.Email); relErr != nil {
				log.Error().Err(relErr).Msg("Failed to release enrollment key after upsert failure")
			}
		}
		return nil, fmt.Errorf("upsert student: %w", err)
	}

	// From here on the student exists; a failure leaves a retryable state.
	err = s.applications.MarkApplicationConsumed(ctx, app.ID, studentID)
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		// A concurrent run for the same claimant already consumed it.
		log.Info().Msg("Application already consumed")
	case err != nil:
		return nil, fmt.Errorf("mark application consumed: %w", err)
	}
	if err := s.applications.DeleteApplication(ctx, app.ID); err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, fmt.Errorf("delete application: %w", err)
	}

	if stored, err := s.students.GetStudent(ctx, studentID); err == nil {
		student = stored
	}

	event := websocket.EventUpdate
	if created {
		event = websocket.EventInsert
	}
	publish(s.publisher, feed.NewChange(event, models.TableStudents, student.StudentID, student.StudentID, student.Version, student))
	// Past the version written by the consumed stamp.
	publish(s.publisher, feed.NewChange(websocket.EventDelete, models.TableApplications, app.ID, app.ID, app.Version+2, nil))

	log.Info().Bool("created", created).Str("outcome", string(outcome)).Str("department", student.Department).Msg("Application activated")

	warnings := s.notify.send(ctx, email.KindActivationConfirmed, email.Payload{
		ToEmail:    student.Email,
		ToName:     student.FullName(),
		StudentID:  student.StudentID,
		Course:     student.Course,
		Department: student.Department,
	})

	return &ActivationResult{
		Student:  student,
		Outcome:  outcome,
		Created:  created,
		Warnings: warnings,
	}, nil
}

// buildStudent copies every field the Application shares with Student and
// applies the activation defaults.
func buildStudent(app *models.Application, studentID, course string, now time.Time) *models.Student {
	return &models.Student{
		StudentID:         studentID,
		Identity:          app.Identity,
		CoursePreferences: app.CoursePreferences,
		Course:            course,
		Department:        catalog.DepartmentFor(course),
		YearLevel:         models.DefaultYearLevel,
		Status:            models.StudentActive,
		PasswordHash:      app.PasswordHash,
		ActivatedAt:       now,
	}
}

func publish(p Publisher, change feed.Change) {
	if p != nil {
		p.Publish(change)
	}
}
