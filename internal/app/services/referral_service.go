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
	"github.com/yigit/careportal/internal/pkg/email"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// SubmitInput is the student's request payload.
type SubmitInput struct {
	Kind        models.RequestKind
	Category    string
	Reason      string
	Description string
}

// ForwardInput carries the referral details stamped by the referrer.
type ForwardInput struct {
	Notes string
	// Department overrides the actor's own department when set.
	Department string
}

// TransitionResult is returned by every successful workflow operation.
type TransitionResult struct {
	Request *models.ReferralRequest
	// Unchanged is true when the call was recognised as a repeat and nothing
	// was written.
	Unchanged bool
	Warnings  []string
}

// ReferralService drives counseling and support requests through their
// status graph.
type ReferralService struct {
	referrals ReferralStore
	students  StudentStore
	publisher Publisher
	notify    notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReferralService creates a new ReferralService
func NewReferralService(
	referrals ReferralStore,
	students StudentStore,
	publisher Publisher,
	dispatcher Notifier,
	notifyTimeout time.Duration,
	logger zerolog.Logger,
) *ReferralService {
	return &ReferralService{
		referrals: referrals,
		students:  students,
		publisher: publisher,
		notify:    newNotifier(dispatcher, notifyTimeout, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Submit creates a new request owned by the acting student.
func (s *ReferralService) Submit(ctx context.Context, actor models.Actor, in SubmitInput) (*TransitionResult, error) {
	d := lifecycle.Validate(lifecycle.Snapshot{StudentID: actor.SubjectID}, lifecycle.ActionSubmit, actor)
	if !d.Allowed {
		return nil, decisionError(d)
	}
	if in.Kind != models.KindCounseling && in.Kind != models.KindSupport {
		return nil, apperrors.NewValidationError("kind must be COUNSELING or SUPPORT")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperrors.NewValidationError("reason is required")
	}

	student, err := s.students.GetStudent(ctx, actor.SubjectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &models.ReferralRequest{
		ID:          uuid.NewString(),
		Kind:        in.Kind,
		StudentID:   student.StudentID,
		Status:      d.Target,
		Category:    strings.TrimSpace(in.Category),
		Reason:      strings.TrimSpace(in.Reason),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if err := s.referrals.CreateReferral(ctx, req); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}

	s.logger.Info().Str("requestID", req.ID).Str("studentID", req.StudentID).Str("kind", string(req.Kind)).Msg("Request submitted")
	publish(s.publisher, feed.NewChange(websocket.EventInsert, models.TableReferralRequests, req.ID, req.StudentID, req.Version, req))

	warnings := s.notify.send(ctx, email.KindSubmissionReceived, s.payloadFor(student, req))
	return &TransitionResult{Request: req, Warnings: warnings}, nil
}

// Forward moves a submitted or pending request to Referred. Forwarding a
// request the same actor already referred is reported as unchanged.
func (s *ReferralService) Forward(ctx context.Context, actor models.Actor, requestID string, in ForwardInput) (*TransitionResult, error) {
	department := strings.TrimSpace(in.Department)
	if department == "" {
		department = actor.Department
	}
	referredBy := actorLabel(actor)
	referredByID := actor.SubjectID

	req, err := s.referrals.GetReferral(ctx, requestID)
	if err != nil {
		return nil, err
	}
	// Repeats are recognised by account, never by display name.
	if req.Status == models.RequestReferred && referredByID != "" &&
		req.ReferredByID != nil && *req.ReferredByID == referredByID {
		return &TransitionResult{Request: req, Unchanged: true}, nil
	}

	patch := models.ReferralPatch{
		ReferredBy:         &referredBy,
		ReferredByID:       optional(referredByID),
		ReferrerDepartment: optional(department),
		ReferralNotes:      optional(in.Notes),
	}
	return s.apply(ctx, actor, req, lifecycle.ActionForward, patch, email.KindReferralForwarded)
}

// Schedule sets the session date. CARE staff produce Scheduled, department
// referrers produce Staff Scheduled.
func (s *ReferralService) Schedule(ctx context.Context, actor models.Actor, requestID string, when time.Time) (*TransitionResult, error) {
	if when.IsZero() {
		return nil, apperrors.NewValidationError("scheduled date is required")
	}
	req, err := s.referrals.GetReferral(ctx, requestID)
	if err != nil {
		return nil, err
	}
	when = when.UTC()
	scheduledBy := actorLabel(actor)
	patch := models.ReferralPatch{
		ScheduledDate: &when,
		ScheduledBy:   &scheduledBy,
		ScheduledByID: optional(actor.SubjectID),
	}
	return s.apply(ctx, actor, req, lifecycle.ActionSchedule, patch, email.KindSessionScheduled)
}

// Complete closes a scheduled request with resolution notes.
func (s *ReferralService) Complete(ctx context.Context, actor models.Actor, requestID, resolutionNotes string) (*TransitionResult, error) {
	req, err := s.referrals.GetReferral(ctx, requestID)
	if err != nil {
		return nil, err
	}
	patch := models.ReferralPatch{ResolutionNotes: optional(resolutionNotes)}
	return s.apply(ctx, actor, req, lifecycle.ActionComplete, patch, email.KindRequestCompleted)
}

// Reject closes a submitted or referred request.
func (s *ReferralService) Reject(ctx context.Context, actor models.Actor, requestID, notes string) (*TransitionResult, error) {
	req, err := s.referrals.GetReferral(ctx, requestID)
	if err != nil {
		return nil, err
	}
	patch := models.ReferralPatch{ResolutionNotes: optional(notes)}
	return s.apply(ctx, actor, req, lifecycle.ActionReject, patch, email.KindRequestRejected)
}

// Rate attaches the student's rating to a completed request. It succeeds
// once; a second rating is rejected and the first is kept.
func (s *ReferralService) Rate(ctx context.Context, actor models.Actor, requestID string, rating int, feedback string) (*TransitionResult, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5")
	}
	req, err := s.referrals.GetReferral(ctx, requestID)
	if err != nil {
		return nil, err
	}
	patch := models.ReferralPatch{Rating: &rating, Feedback: optional(feedback)}
	return s.apply(ctx, actor, req, lifecycle.ActionRate, patch, "")
}

// Get returns one request. Students only see their own.
func (s *ReferralService) Get(ctx context.Context, actor models.Actor, requestID string) (*models.ReferralRequest, error) {
	req, err := s.referrals.GetReferral(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() && !actor.Owns(req.StudentID) {
		return nil, apperrors.NewResourceNotFoundError("request not found")
	}
	return req, nil
}

// ListForStudent returns the acting student's requests, newest first.
func (s *ReferralService) ListForStudent(ctx context.Context, actor models.Actor, filter models.ReferralFilter) ([]*models.ReferralRequest, int64, error) {
	if actor.Role != models.RoleStudent {
		return nil, 0, apperrors.NewForbiddenError("only students have personal request lists")
	}
	filter.StudentID = actor.SubjectID
	return s.referrals.ListReferrals(ctx, filter)
}

// List is the staff console listing.
func (s *ReferralService) List(ctx context.Context, actor models.Actor, filter models.ReferralFilter) ([]*models.ReferralRequest, int64, error) {
	if !actor.Role.IsStaff() {
		return nil, 0, apperrors.NewForbiddenError("only staff may list all requests")
	}
	return s.referrals.ListReferrals(ctx, filter)
}

// apply validates action against the latest snapshot and writes the patch
// conditionally on the status that was validated.
func (s *ReferralService) apply(
	ctx context.Context,
	actor models.Actor,
	req *models.ReferralRequest,
	action lifecycle.Action,
	patch models.ReferralPatch,
	kind email.Kind,
) (*TransitionResult, error) {
	log := s.logger.With().
		Str("requestID", req.ID).
		Str("action", string(action)).
		Str("actorRole", string(actor.Role)).
		Logger()

	d := lifecycle.Validate(lifecycle.SnapshotOf(req), action, actor)
	if !d.Allowed {
		log.Info().Str("reason", string(d.Reason)).Str("status", string(req.Status)).Msg("Transition denied")
		return nil, decisionError(d)
	}

	patch.Status = d.Target
	pre := models.ReferralPrecondition{Status: req.Status, Unrated: action == lifecycle.ActionRate}
	updated, err := s.referrals.UpdateReferral(ctx, req.ID, pre, patch)
	if err != nil {
		log.Warn().Err(err).Msg("Transition write failed")
		return nil, err
	}

	log.Info().Str("from", string(req.Status)).Str("to", string(updated.Status)).Msg("Request transitioned")
	publish(s.publisher, feed.NewChange(websocket.EventUpdate, models.TableReferralRequests, updated.ID, updated.StudentID, updated.Version, updated))

	result := &TransitionResult{Request: updated}
	if kind == "" {
		return result, nil
	}
	student, err := s.students.GetStudent(ctx, updated.StudentID)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load student for notification")
		result.Warnings = []string{fmt.Sprintf("%s notification could not be delivered", kind)}
		return result, nil
	}
	payload := s.payloadFor(student, updated)
	payload.Department = derefOr(updated.ReferrerDepartment, actor.Department)
	result.Warnings = s.notify.send(ctx, kind, payload)
	return result, nil
}

func (s *ReferralService) payloadFor(student *models.Student, req *models.ReferralRequest) email.Payload {
	return email.Payload{
		ToEmail:       student.Email,
		ToName:        student.FullName(),
		StudentID:     student.StudentID,
		RequestID:     req.ID,
		RequestKind:   string(req.Kind),
		Status:        req.Status.Label(),
		Notes:         derefOr(req.ResolutionNotes, ""),
		ScheduledDate: req.ScheduledDate,
	}
}

// decisionError maps a validator denial onto the error taxonomy.
func decisionError(d lifecycle.Decision) error {
	switch d.Reason {
	case lifecycle.ReasonRoleNotPermitted, lifecycle.ReasonNotOwner:
		return apperrors.NewCustomError(apperrors.ErrPermissionDenied, d.Message).WithCode(string(d.Reason))
	case lifecycle.ReasonAlreadyRated:
		return apperrors.NewCustomError(apperrors.ErrAlreadyRated, d.Message).WithCode(string(d.Reason))
	}
	return apperrors.NewTransitionError(string(d.Reason), d.Message)
}

func actorLabel(actor models.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.Email
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
