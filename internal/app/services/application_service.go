package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/lifecycle"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/auth"
	"github.com/yigit/careportal/internal/pkg/email"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

const generatedPasswordLength = 10

// ApplicationInput is the public admission form.
type ApplicationInput struct {
	models.Identity
	models.CoursePreferences
	TestDate *time.Time
}

// ApplicationSubmission carries the generated credentials back to the
// applicant once. Only the hash is stored.
type ApplicationSubmission struct {
	Application *models.Application
	Username    string
	Password    string
	Warnings    []string
}

// ApplicationResult wraps a lifecycle change on an Application.
type ApplicationResult struct {
	Application *models.Application
}

// ApplicationService handles public intake and the test-day lifecycle.
type ApplicationService struct {
	applications ApplicationStore
	publisher    Publisher
	notify       notifier
	logger       zerolog.Logger
	now          func() time.Time
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(
	applications ApplicationStore,
	publisher Publisher,
	dispatcher Notifier,
	notifyTimeout time.Duration,
	logger zerolog.Logger,
) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		publisher:    publisher,
		notify:       newNotifier(dispatcher, notifyTimeout, logger),
		logger:       logger,
		now:          time.Now,
	}
}

// Submit registers a new applicant with generated portal credentials.
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput) (*ApplicationSubmission, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apperrors.NewValidationError("first and last name are required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperrors.NewValidationError("email is required")
	}
	if strings.TrimSpace(in.FirstChoice) == "" {
		return nil, apperrors.NewValidationError("a first choice course is required")
	}

	password, err := email.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash applicant password: %w", err)
	}

	now := s.now().UTC()
	app := &models.Application{
		ID:                uuid.NewString(),
		Identity:          in.Identity,
		CoursePreferences: in.CoursePreferences,
		TestDate:          in.TestDate,
		Username:          generateUsername(now),
		PasswordHash:      hash,
		Status:            models.ApplicationApplied,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}
	app.Email = strings.TrimSpace(app.Email)

	if err := s.applications.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.logger.Info().Str("applicationID", app.ID).Str("username", app.Username).Msg("Application submitted")
	publish(s.publisher, feed.NewChange(websocket.EventInsert, models.TableApplications, app.ID, app.ID, app.Version, app))

	warnings := s.notify.send(ctx, email.KindApplicationReceived, email.Payload{
		ToEmail:  app.Email,
		ToName:   app.FullName(),
		Course:   app.FirstChoice,
		Username: app.Username,
		Password: password,
	})

	return &ApplicationSubmission{
		Application: app,
		Username:    app.Username,
		Password:    password,
		Warnings:    warnings,
	}, nil
}

// Get returns an Application to its applicant or to CARE staff.
func (s *ApplicationService) Get(ctx context.Context, actor models.Actor, id string) (*models.Application, error) {
	if !canViewApplication(actor, id) {
		return nil, apperrors.NewForbiddenError("not allowed to view this application")
	}
	return s.applications.GetApplication(ctx, id)
}

// List is the staff console listing.
func (s *ApplicationService) List(ctx context.Context, actor models.Actor, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	if actor.Role != models.RoleCareStaff {
		return nil, 0, apperrors.NewForbiddenError("only CARE staff may list applications")
	}
	return s.applications.ListApplications(ctx, filter)
}

// TimeIn records the applicant's arrival on test day.
func (s *ApplicationService) TimeIn(ctx context.Context, actor models.Actor) (*ApplicationResult, error) {
	return s.changeStatus(ctx, actor, actor.SubjectID, models.ApplicationOngoing)
}

// TimeOut records the applicant finishing the test.
func (s *ApplicationService) TimeOut(ctx context.Context, actor models.Actor) (*ApplicationResult, error) {
	return s.changeStatus(ctx, actor, actor.SubjectID, models.ApplicationTestTaken)
}

// UpdateStatus applies a staff status change, e.g. recording the result.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor models.Actor, id string, status models.ApplicationStatus) (*ApplicationResult, error) {
	return s.changeStatus(ctx, actor, id, status)
}

func (s *ApplicationService) changeStatus(ctx context.Context, actor models.Actor, id string, target models.ApplicationStatus) (*ApplicationResult, error) {
	if actor.Role == models.RoleApplicant && actor.SubjectID != id {
		return nil, apperrors.NewForbiddenError("applicants may only update their own application")
	}

	app, err := s.applications.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	d := lifecycle.CanTransitionApplication(app.Status, target, actor.Role)
	if !d.Allowed {
		if d.Reason == lifecycle.ReasonRoleNotPermitted {
			return nil, apperrors.NewCustomError(apperrors.ErrPermissionDenied, d.Message).WithCode(string(d.Reason))
		}
		return nil, apperrors.NewTransitionError(string(d.Reason), d.Message)
	}

	now := s.now().UTC()
	patch := models.ApplicationPatch{Status: target}
	switch target {
	case models.ApplicationOngoing:
		patch.TimeIn = &now
	case models.ApplicationTestTaken:
		patch.TimeOut = &now
	}

	updated, err := s.applications.UpdateApplicationStatus(ctx, id, app.Status, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("applicationID", id).
		Str("from", string(app.Status)).
		Str("to", string(updated.Status)).
		Str("actorRole", string(actor.Role)).
		Msg("Application status changed")
	publish(s.publisher, feed.NewChange(websocket.EventUpdate, models.TableApplications, updated.ID, updated.ID, updated.Version, updated))

	return &ApplicationResult{Application: updated}, nil
}

func canViewApplication(actor models.Actor, id string) bool {
	switch actor.Role {
	case models.RoleCareStaff:
		return true
	case models.RoleApplicant:
		return actor.SubjectID == id
	}
	return false
}

// generateUsername builds a portal username such as A2026-3F9C1B2E.
func generateUsername(now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("A%d-%s", now.Year(), strings.ToUpper(token[:8]))
}
