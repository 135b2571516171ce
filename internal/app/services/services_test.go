package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	"github.com/yigit/careportal/internal/pkg/email"
)

type sentNotification struct {
	kind    email.Kind
	payload email.Payload
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, kind email.Kind, payload email.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{kind: kind, payload: payload})
	return f.err
}

func (f *fakeNotifier) count(kind email.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []feed.Change
}

func (f *fakePublisher) Publish(change feed.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)
}

func (f *fakePublisher) find(event, table, key string) (feed.Change, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.changes {
		if c.Event == event && c.Table == table && c.Key == key {
			return c, true
		}
	}
	return feed.Change{}, false
}

var (
	careStaff = models.Actor{Role: models.RoleCareStaff, Email: "care@example.edu", SubjectID: "staff-1", Name: "Care Desk"}
	referrer  = models.Actor{Role: models.RoleDepartmentReferrer, Email: "dean@example.edu", SubjectID: "staff-2", Name: "Dean Cruz", Department: "College of Nursing"}
)

func studentActor(id string) models.Actor {
	return models.Actor{Role: models.RoleStudent, SubjectID: id, Email: id + "@students.example.edu"}
}

func applicantActor(app *models.Application) models.Actor {
	return models.Actor{Role: models.RoleApplicant, SubjectID: app.ID, Email: app.Email}
}

func seedApplication(t *testing.T, store *memory.Store, id, mail, course string, status models.ApplicationStatus) *models.Application {
	t.Helper()
	app := &models.Application{
		ID: id,
		Identity: models.Identity{
			FirstName: "Maria",
			LastName:  "Santos",
			Email:     mail,
		},
		CoursePreferences: models.CoursePreferences{FirstChoice: course},
		Username:          "A2026-" + id,
		PasswordHash:      "hash-" + id,
		Status:            status,
		CreatedAt:         time.Now().UTC(),
		Version:           1,
	}
	if err := store.CreateApplication(context.Background(), app); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app
}

func seedKey(t *testing.T, store *memory.Store, studentID, course string) {
	t.Helper()
	if err := store.CreateEnrollmentKey(context.Background(), &models.EnrollmentKey{StudentID: studentID, Course: course}); err != nil {
		t.Fatalf("seed key: %v", err)
	}
}

type activationFixture struct {
	store     *memory.Store
	notifier  *fakeNotifier
	publisher *fakePublisher
	guard     *KeyGuard
	svc       *ActivationService
}

func newActivationFixture() *activationFixture {
	store := memory.New()
	f := &activationFixture{store: store, notifier: &fakeNotifier{}, publisher: &fakePublisher{}}
	f.guard = NewKeyGuard(store, store, store, zerolog.Nop())
	f.svc = NewActivationService(store, store, f.guard, f.publisher, f.notifier, time.Second, zerolog.Nop())
	return f
}

// failingUpserts breaks profile writes after the key claim.
type failingUpserts struct {
	*memory.Store
}

func (failingUpserts) UpsertStudent(context.Context, *models.Student) (bool, error) {
	return false, errors.New("connection reset")
}

// staleReferrals serves an outdated snapshot to simulate a concurrent writer.
type staleReferrals struct {
	*memory.Store
	stale models.ReferralRequest
}

func (s staleReferrals) GetReferral(context.Context, string) (*models.ReferralRequest, error) {
	r := s.stale
	return &r, nil
}

// interleavedUpserts lets a second activation finish before failing the
// first profile write.
type interleavedUpserts struct {
	*memory.Store
	before func()
}

func (s interleavedUpserts) UpsertStudent(context.Context, *models.Student) (bool, error) {
	s.before()
	return false, errors.New("connection reset")
}

// interleavedStamps lets a second activation finish before the first run
// stamps the Application.
type interleavedStamps struct {
	*memory.Store
	before func()
}

func (s interleavedStamps) MarkApplicationConsumed(ctx context.Context, id, studentID string) error {
	s.before()
	return s.Store.MarkApplicationConsumed(ctx, id, studentID)
}
