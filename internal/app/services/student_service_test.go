package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	"github.com/yigit/careportal/internal/pkg/apperrors"
)

func newStudentService(t *testing.T) (*StudentService, *memory.Store) {
	t.Helper()
	store := memory.New()
	_, err := store.UpsertStudent(context.Background(), &models.Student{
		StudentID:  "2024-0001",
		Course:     "BS Nursing",
		Department: "College of Nursing",
		Status:     models.StudentActive,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewStudentService(store, &fakePublisher{}, zerolog.Nop()), store
}

func strPtr(s string) *string { return &s }

func TestStudentEditsContactDetails(t *testing.T) {
	svc, _ := newStudentService(t)
	owner := studentActor("2024-0001")

	st, err := svc.UpdateProfile(context.Background(), owner, "2024-0001", ProfileUpdate{ExpectedVersion: 1, Address: strPtr("Rizal St")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if st.Address != "Rizal St" || st.Version != 2 {
		t.Fatalf("student = %+v", st)
	}

	_, err = svc.UpdateProfile(context.Background(), owner, "2024-0001", ProfileUpdate{ExpectedVersion: 2, Course: strPtr("BS Criminology")})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("student course change err = %v", err)
	}
}

func TestStaffCourseChangeRederivesDepartment(t *testing.T) {
	svc, _ := newStudentService(t)

	st, err := svc.UpdateProfile(context.Background(), careStaff, "2024-0001", ProfileUpdate{ExpectedVersion: 1, Course: strPtr("BS Criminology")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if st.Department != "College of Criminal Justice Education" {
		t.Fatalf("department = %q", st.Department)
	}
}

func TestProfileUpdateStaleVersion(t *testing.T) {
	svc, _ := newStudentService(t)
	_, err := svc.UpdateProfile(context.Background(), careStaff, "2024-0001", ProfileUpdate{ExpectedVersion: 5, Section: strPtr("B")})
	if !errors.Is(err, apperrors.ErrWriteConflict) {
		t.Fatalf("err = %v", err)
	}
}

func TestProfileVisibility(t *testing.T) {
	svc, _ := newStudentService(t)
	if _, err := svc.GetProfile(context.Background(), studentActor("2024-0002"), "2024-0001"); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("other student err = %v", err)
	}
	if _, err := svc.GetProfile(context.Background(), referrer, "2024-0001"); err != nil {
		t.Fatalf("referrer GetProfile: %v", err)
	}
}
