package services

import (
	"context"

	"github.com/yigit/careportal/internal/app/feed"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/email"
)

// Services defined in this package:
// - KeyGuard: single-use enrollment key acquisition
// - ActivationService: promotes a passed Application into a Student
// - ReferralService: counseling/support request workflow
// - ApplicationService: public intake and test-day lifecycle
// - StudentService: profile reads and edits after activation
// - AuthService: login for applicants, students and staff
//
// The store interfaces below are the narrow data contract the engine
// consumes. Implementations live in repositories (Postgres) and
// repositories/memory. Not-found reads return apperrors.ErrResourceNotFound,
// duplicate inserts apperrors.ErrResourceAlreadyExists, and conditional
// writes whose precondition no longer holds apperrors.ErrWriteConflict.

// ApplicationStore persists Application records.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetApplicationByUsername(ctx context.Context, username string) (*models.Application, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error)
	// UpdateApplicationStatus applies patch only while the status is still expected.
	UpdateApplicationStatus(ctx context.Context, id string, expected models.ApplicationStatus, patch models.ApplicationPatch) (*models.Application, error)
	// MarkApplicationConsumed stamps student_id unless another id is already stamped.
	MarkApplicationConsumed(ctx context.Context, id, studentID string) error
	DeleteApplication(ctx context.Context, id string) error
	// StudentIDClaimedByOther reports whether an Application other than
	// applicationID already carries studentID.
	StudentIDClaimedByOther(ctx context.Context, studentID, applicationID string) (bool, error)
}

// EnrollmentKeyStore persists enrollment keys.
type EnrollmentKeyStore interface {
	GetEnrollmentKey(ctx context.Context, studentID string) (*models.EnrollmentKey, error)
	CreateEnrollmentKey(ctx context.Context, key *models.EnrollmentKey) error
	// ClaimEnrollmentKey marks the key used for email only while is_used is false.
	ClaimEnrollmentKey(ctx context.Context, studentID, email string) error
	// ReleaseEnrollmentKey undoes a claim only while it is still held by email
	// and no Student carries studentID.
	ReleaseEnrollmentKey(ctx context.Context, studentID, email string) error
}

// RosterStore reads the independent registrar roster.
type RosterStore interface {
	GetRosterEntry(ctx context.Context, studentID string) (*models.RosterEntry, error)
}

// StudentStore persists Student profiles.
type StudentStore interface {
	GetStudent(ctx context.Context, studentID string) (*models.Student, error)
	// UpsertStudent inserts or updates by student id and reports whether a
	// new row was created. An existing profile with a different email is
	// never touched; that returns apperrors.ErrConflictOwnedByOther.
	UpsertStudent(ctx context.Context, student *models.Student) (bool, error)
	// UpdateStudent applies patch only while the stored version still equals
	// expectedVersion.
	UpdateStudent(ctx context.Context, studentID string, expectedVersion int64, patch models.StudentPatch) (*models.Student, error)
}

// ReferralStore persists counseling and support requests.
type ReferralStore interface {
	CreateReferral(ctx context.Context, req *models.ReferralRequest) error
	GetReferral(ctx context.Context, id string) (*models.ReferralRequest, error)
	ListReferrals(ctx context.Context, filter models.ReferralFilter) ([]*models.ReferralRequest, int64, error)
	UpdateReferral(ctx context.Context, id string, pre models.ReferralPrecondition, patch models.ReferralPatch) (*models.ReferralRequest, error)
}

// StaffStore persists console accounts.
type StaffStore interface {
	GetStaffByEmail(ctx context.Context, email string) (*models.StaffAccount, error)
	CreateStaff(ctx context.Context, account *models.StaffAccount) error
}

// Notifier is the notification dispatcher collaborator.
type Notifier interface {
	Send(ctx context.Context, kind email.Kind, payload email.Payload) error
}

// Publisher broadcasts committed changes to feed observers.
type Publisher interface {
	Publish(change feed.Change)
}
