package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/lifecycle"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/email"
)

type referralFixture struct {
	store    *memory.Store
	notifier *fakeNotifier
	svc      *ReferralService
	student  models.Actor
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()
	store := memory.New()
	_, err := store.UpsertStudent(context.Background(), &models.Student{
		StudentID: "2024-0001",
		Identity:  models.Identity{FirstName: "Maria", LastName: "Santos", Email: "maria@example.com"},
		Status:    models.StudentActive,
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	n := &fakeNotifier{}
	return &referralFixture{
		store:    store,
		notifier: n,
		svc:      NewReferralService(store, store, &fakePublisher{}, n, time.Second, zerolog.Nop()),
		student:  studentActor("2024-0001"),
	}
}

func (f *referralFixture) submit(t *testing.T) *models.ReferralRequest {
	t.Helper()
	res, err := f.svc.Submit(context.Background(), f.student, SubmitInput{Kind: models.KindCounseling, Reason: "exam stress"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return res.Request
}

func TestReferralFullFlow(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)
	if req.Status != models.RequestSubmitted || req.Version != 1 {
		t.Fatalf("submitted = %s v%d", req.Status, req.Version)
	}

	fw, err := f.svc.Forward(ctx, referrer, req.ID, ForwardInput{Notes: "needs follow-up"})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if fw.Request.Status != models.RequestReferred || *fw.Request.ReferredBy != "Dean Cruz" || *fw.Request.ReferrerDepartment != "College of Nursing" {
		t.Fatalf("forwarded = %+v", fw.Request)
	}

	when := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	sc, err := f.svc.Schedule(ctx, referrer, req.ID, when)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if sc.Request.Status != models.RequestStaffScheduled || !sc.Request.ScheduledDate.Equal(when) {
		t.Fatalf("scheduled = %s %v", sc.Request.Status, sc.Request.ScheduledDate)
	}

	done, err := f.svc.Complete(ctx, careStaff, req.ID, "resolved")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Request.Status != models.RequestCompleted {
		t.Fatalf("completed = %s", done.Request.Status)
	}

	if _, err := f.svc.Rate(ctx, f.student, req.ID, 5, "thank you"); err != nil {
		t.Fatalf("Rate: %v", err)
	}

	_, err = f.svc.Reject(ctx, careStaff, req.ID, "late")
	if !errors.Is(err, apperrors.ErrInvalidStateTransition) {
		t.Fatalf("reject after completion err = %v", err)
	}

	final, _ := f.store.GetReferral(ctx, req.ID)
	if final.Status != models.RequestCompleted || *final.Rating != 5 {
		t.Fatalf("final = %s rating %v", final.Status, final.Rating)
	}
	for _, kind := range []email.Kind{
		email.KindSubmissionReceived,
		email.KindReferralForwarded,
		email.KindSessionScheduled,
		email.KindRequestCompleted,
	} {
		if n := f.notifier.count(kind); n != 1 {
			t.Errorf("%s sent %d times", kind, n)
		}
	}
}

func TestRateTwiceKeepsFirst(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)
	_, _ = f.svc.Forward(ctx, careStaff, req.ID, ForwardInput{})
	_, _ = f.svc.Schedule(ctx, careStaff, req.ID, time.Now().Add(24*time.Hour))
	if _, err := f.svc.Complete(ctx, careStaff, req.ID, ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if _, err := f.svc.Rate(ctx, f.student, req.ID, 4, "good"); err != nil {
		t.Fatalf("first rate: %v", err)
	}
	_, err := f.svc.Rate(ctx, f.student, req.ID, 1, "changed my mind")
	if !errors.Is(err, apperrors.ErrAlreadyRated) {
		t.Fatalf("second rate err = %v", err)
	}
	got, _ := f.store.GetReferral(ctx, req.ID)
	if *got.Rating != 4 || *got.Feedback != "good" {
		t.Fatalf("rating = %d %q", *got.Rating, *got.Feedback)
	}
}

func TestForwardIsReentrantForSameReferrer(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)

	first, err := f.svc.Forward(ctx, referrer, req.ID, ForwardInput{})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	again, err := f.svc.Forward(ctx, referrer, req.ID, ForwardInput{})
	if err != nil || !again.Unchanged {
		t.Fatalf("repeat forward = %+v, %v", again, err)
	}
	if again.Request.Version != first.Request.Version {
		t.Fatalf("repeat forward wrote a new version")
	}
	if n := f.notifier.count(email.KindReferralForwarded); n != 1 {
		t.Fatalf("forward notifications = %d", n)
	}

	_, err = f.svc.Forward(ctx, careStaff, req.ID, ForwardInput{})
	if !errors.Is(err, apperrors.ErrInvalidStateTransition) {
		t.Fatalf("forward by other actor err = %v", err)
	}
}

func TestForwardMatchesReferrerByAccount(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)

	first, err := f.svc.Forward(ctx, referrer, req.ID, ForwardInput{})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if first.Request.ReferredByID == nil || *first.Request.ReferredByID != referrer.SubjectID {
		t.Fatalf("referredById = %v", first.Request.ReferredByID)
	}

	namesake := referrer
	namesake.SubjectID = "staff-9"
	namesake.Email = "dean.cruz@example.edu"
	res, err := f.svc.Forward(ctx, namesake, req.ID, ForwardInput{})
	if !errors.Is(err, apperrors.ErrInvalidStateTransition) {
		t.Fatalf("forward by namesake = %+v, %v", res, err)
	}

	sc, err := f.svc.Schedule(ctx, referrer, req.ID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if sc.Request.ScheduledByID == nil || *sc.Request.ScheduledByID != referrer.SubjectID {
		t.Fatalf("scheduledById = %v", sc.Request.ScheduledByID)
	}
}

func TestReferralPermissionDenials(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)

	tests := []struct {
		name string
		call func() error
		code lifecycle.Reason
	}{
		{"student forwards", func() error {
			_, err := f.svc.Forward(ctx, f.student, req.ID, ForwardInput{})
			return err
		}, lifecycle.ReasonRoleNotPermitted},
		{"staff submits", func() error {
			_, err := f.svc.Submit(ctx, careStaff, SubmitInput{Kind: models.KindSupport, Reason: "x"})
			return err
		}, lifecycle.ReasonRoleNotPermitted},
		{"other student rates", func() error {
			_, err := f.svc.Rate(ctx, studentActor("2024-0002"), req.ID, 3, "")
			return err
		}, lifecycle.ReasonNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, apperrors.ErrPermissionDenied) {
				t.Fatalf("err = %v", err)
			}
			if apperrors.CodeOf(err) != string(tt.code) {
				t.Fatalf("code = %q", apperrors.CodeOf(err))
			}
		})
	}
}

func TestReferralStaleSnapshotIsWriteConflict(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)
	if _, err := f.svc.Reject(ctx, careStaff, req.ID, "duplicate"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	stale := NewReferralService(staleReferrals{Store: f.store, stale: *req}, f.store, nil, f.notifier, time.Second, zerolog.Nop())
	_, err := stale.Forward(ctx, referrer, req.ID, ForwardInput{})
	if !errors.Is(err, apperrors.ErrWriteConflict) {
		t.Fatalf("err = %v, want write conflict", err)
	}
	got, _ := f.store.GetReferral(ctx, req.ID)
	if got.Status != models.RequestRejected {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestReferralNotificationFailureIsWarning(t *testing.T) {
	f := newReferralFixture(t)
	f.notifier.err = errors.New("smtp down")

	res, err := f.svc.Submit(context.Background(), f.student, SubmitInput{Kind: models.KindSupport, Reason: "tuition"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if _, err := f.store.GetReferral(context.Background(), res.Request.ID); err != nil {
		t.Fatalf("request not persisted: %v", err)
	}
}

func TestStudentsOnlySeeOwnRequests(t *testing.T) {
	ctx := context.Background()
	f := newReferralFixture(t)
	req := f.submit(t)

	if _, err := f.svc.Get(ctx, studentActor("2024-0002"), req.ID); !errors.Is(err, apperrors.ErrResourceNotFound) {
		t.Fatalf("other student err = %v", err)
	}
	items, total, err := f.svc.ListForStudent(ctx, f.student, models.ReferralFilter{})
	if err != nil || total != 1 || items[0].ID != req.ID {
		t.Fatalf("ListForStudent = %v %d %v", items, total, err)
	}
	if _, _, err := f.svc.List(ctx, f.student, models.ReferralFilter{}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("student List err = %v", err)
	}
}
