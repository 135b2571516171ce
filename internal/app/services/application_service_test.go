package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/auth"
	"github.com/yigit/careportal/internal/pkg/email"
)

func newApplicationService() (*ApplicationService, *memory.Store, *fakeNotifier) {
	store := memory.New()
	n := &fakeNotifier{}
	return NewApplicationService(store, &fakePublisher{}, n, time.Second, zerolog.Nop()), store, n
}

func TestSubmitApplicationIssuesCredentials(t *testing.T) {
	svc, store, n := newApplicationService()

	sub, err := svc.Submit(context.Background(), ApplicationInput{
		Identity:          models.Identity{FirstName: "Maria", LastName: "Santos", Email: " maria@example.com "},
		CoursePreferences: models.CoursePreferences{FirstChoice: "BS Nursing"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(sub.Username, "A") || len(sub.Password) != generatedPasswordLength {
		t.Fatalf("credentials = %q %q", sub.Username, sub.Password)
	}

	stored, err := store.GetApplicationByUsername(context.Background(), sub.Username)
	if err != nil {
		t.Fatalf("lookup by username: %v", err)
	}
	if stored.Status != models.ApplicationApplied || stored.Email != "maria@example.com" {
		t.Fatalf("stored = %s %q", stored.Status, stored.Email)
	}
	if !auth.CheckPassword(stored.PasswordHash, sub.Password) {
		t.Fatalf("stored hash does not match issued password")
	}
	if n.count(email.KindApplicationReceived) != 1 {
		t.Fatalf("receipt not sent")
	}
}

func TestSubmitApplicationValidation(t *testing.T) {
	svc, _, _ := newApplicationService()
	tests := []ApplicationInput{
		{Identity: models.Identity{LastName: "Santos", Email: "m@example.com"}, CoursePreferences: models.CoursePreferences{FirstChoice: "BSN"}},
		{Identity: models.Identity{FirstName: "Maria", LastName: "Santos"}, CoursePreferences: models.CoursePreferences{FirstChoice: "BSN"}},
		{Identity: models.Identity{FirstName: "Maria", LastName: "Santos", Email: "m@example.com"}},
	}
	for i, in := range tests {
		if _, err := svc.Submit(context.Background(), in); !errors.Is(err, apperrors.ErrValidationFailed) {
			t.Errorf("case %d: err = %v", i, err)
		}
	}
}

func TestTestDayLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newApplicationService()
	app := seedApplication(t, store, "app-1", "maria@example.com", "BS Nursing", models.ApplicationApplied)
	applicant := applicantActor(app)

	if _, err := svc.TimeOut(ctx, applicant); !errors.Is(err, apperrors.ErrInvalidStateTransition) {
		t.Fatalf("time-out before time-in err = %v", err)
	}

	in, err := svc.TimeIn(ctx, applicant)
	if err != nil {
		t.Fatalf("TimeIn: %v", err)
	}
	if in.Application.Status != models.ApplicationOngoing || in.Application.TimeIn == nil {
		t.Fatalf("after time-in = %+v", in.Application)
	}

	out, err := svc.TimeOut(ctx, applicant)
	if err != nil {
		t.Fatalf("TimeOut: %v", err)
	}
	if out.Application.Status != models.ApplicationTestTaken || out.Application.TimeOut == nil {
		t.Fatalf("after time-out = %+v", out.Application)
	}

	if _, err := svc.UpdateStatus(ctx, applicant, app.ID, models.ApplicationPassed); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("applicant self-pass err = %v", err)
	}
	passed, err := svc.UpdateStatus(ctx, careStaff, app.ID, models.ApplicationPassed)
	if err != nil || passed.Application.Status != models.ApplicationPassed {
		t.Fatalf("staff pass = %+v, %v", passed, err)
	}
	if passed.Application.Version != 4 {
		t.Fatalf("version = %d", passed.Application.Version)
	}
}

func TestApplicationVisibility(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newApplicationService()
	app := seedApplication(t, store, "app-1", "maria@example.com", "BS Nursing", models.ApplicationApplied)

	if _, err := svc.Get(ctx, models.Actor{Role: models.RoleApplicant, SubjectID: "app-2"}, app.ID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("other applicant err = %v", err)
	}
	if _, err := svc.Get(ctx, careStaff, app.ID); err != nil {
		t.Fatalf("staff Get: %v", err)
	}
	if _, _, err := svc.List(ctx, referrer, models.ApplicationFilter{}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("referrer List err = %v", err)
	}
	items, total, err := svc.List(ctx, careStaff, models.ApplicationFilter{Status: models.ApplicationApplied})
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("List = %d %v", total, err)
	}
}
