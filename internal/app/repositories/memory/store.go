// Package memory is an in-process implementation of every store contract.
// It backs tests and the `memory` database driver. Records, pointer fields
// included, are copied on the way in and out so callers never share state
// with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/apperrors"
)

// Store holds all tables behind one mutex.
type Store struct {
	mu           sync.Mutex
	applications map[string]models.Application
	students     map[string]models.Student
	keys         map[string]models.EnrollmentKey
	roster       map[string]models.RosterEntry
	referrals    map[string]models.ReferralRequest
	staff        map[string]models.StaffAccount
	now          func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		applications: map[string]models.Application{},
		students:     map[string]models.Student{},
		keys:         map[string]models.EnrollmentKey{},
		roster:       map[string]models.RosterEntry{},
		referrals:    map[string]models.ReferralRequest{},
		staff:        map[string]models.StaffAccount{},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func notFound(what, key string) error {
	return apperrors.NewResourceNotFoundError(fmt.Sprintf("%s %s not found", what, key))
}

func alreadyExists(what, key string) error {
	return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, fmt.Sprintf("%s %s already exists", what, key))
}

func ownedByOther(studentID string) error {
	return apperrors.NewCustomError(apperrors.ErrConflictOwnedByOther,
		fmt.Sprintf("student %s belongs to another account", studentID))
}

func checkCtx(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// page applies offset/limit to an already sorted slice.
func page[T any](items []T, offset uint64, limit int) []T {
	if offset >= uint64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Applications

func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[app.ID]; ok {
		return alreadyExists("application", app.ID)
	}
	for _, existing := range s.applications {
		if existing.Username == app.Username {
			return alreadyExists("username", app.Username)
		}
	}
	s.applications[app.ID] = cloneApplication(*app)
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, notFound("application", id)
	}
	out := cloneApplication(app)
	return &out, nil
}

func (s *Store) GetApplicationByUsername(ctx context.Context, username string) (*models.Application, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, app := range s.applications {
		if strings.EqualFold(app.Username, username) {
			out := cloneApplication(app)
			return &out, nil
		}
	}
	return nil, notFound("application", username)
}

func (s *Store) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Application
	for _, app := range s.applications {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		a := cloneApplication(app)
		matched = append(matched, &a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Offset, filter.Limit), int64(len(matched)), nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, expected models.ApplicationStatus, patch models.ApplicationPatch) (*models.Application, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, notFound("application", id)
	}
	if app.Status != expected {
		return nil, apperrors.NewWriteConflictError(fmt.Sprintf("application %s is no longer %s", id, expected.Label()))
	}
	app.Status = patch.Status
	if patch.TimeIn != nil {
		app.TimeIn = patch.TimeIn
	}
	if patch.TimeOut != nil {
		app.TimeOut = patch.TimeOut
	}
	app.UpdatedAt = s.now()
	app.Version++
	s.applications[id] = cloneApplication(app)
	return &app, nil
}

func (s *Store) MarkApplicationConsumed(ctx context.Context, id, studentID string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return notFound("application", id)
	}
	if app.StudentID != nil && *app.StudentID != studentID {
		return apperrors.NewWriteConflictError(fmt.Sprintf("application %s is already bound to another student id", id))
	}
	sid := studentID
	app.StudentID = &sid
	app.UpdatedAt = s.now()
	app.Version++
	s.applications[id] = app
	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return notFound("application", id)
	}
	delete(s.applications, id)
	return nil
}

func (s *Store) StudentIDClaimedByOther(ctx context.Context, studentID, applicationID string) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, app := range s.applications {
		if id != applicationID && app.StudentID != nil && *app.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

// Enrollment keys and roster

func (s *Store) GetEnrollmentKey(ctx context.Context, studentID string) (*models.EnrollmentKey, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[studentID]
	if !ok {
		return nil, notFound("enrollment key", studentID)
	}
	out := cloneKey(key)
	return &out, nil
}

func (s *Store) CreateEnrollmentKey(ctx context.Context, key *models.EnrollmentKey) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key.StudentID]; ok {
		return alreadyExists("enrollment key", key.StudentID)
	}
	now := s.now()
	k := cloneKey(*key)
	k.CreatedAt, k.UpdatedAt = now, now
	s.keys[key.StudentID] = k
	*key = cloneKey(k)
	return nil
}

func (s *Store) ClaimEnrollmentKey(ctx context.Context, studentID, email string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[studentID]
	if !ok {
		return notFound("enrollment key", studentID)
	}
	if key.IsUsed {
		return apperrors.NewWriteConflictError(fmt.Sprintf("enrollment key %s is already used", studentID))
	}
	e := email
	key.IsUsed = true
	key.AssignedToEmail = &e
	key.UpdatedAt = s.now()
	s.keys[studentID] = key
	return nil
}

func (s *Store) ReleaseEnrollmentKey(ctx context.Context, studentID, email string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[studentID]
	if !ok {
		return notFound("enrollment key", studentID)
	}
	if !key.IsUsed || key.AssignedToEmail == nil || !models.SameEmail(*key.AssignedToEmail, email) {
		return apperrors.NewWriteConflictError(fmt.Sprintf("enrollment key %s is not held by %s", studentID, email))
	}
	if _, ok := s.students[studentID]; ok {
		return apperrors.NewWriteConflictError(fmt.Sprintf("enrollment key %s backs an existing student", studentID))
	}
	key.IsUsed = false
	key.AssignedToEmail = nil
	key.UpdatedAt = s.now()
	s.keys[studentID] = key
	return nil
}

func (s *Store) GetRosterEntry(ctx context.Context, studentID string) (*models.RosterEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.roster[studentID]
	if !ok {
		return nil, notFound("roster entry", studentID)
	}
	return &entry, nil
}

// PutRosterEntry loads a registrar record.
func (s *Store) PutRosterEntry(entry models.RosterEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster[entry.StudentID] = entry
}

// Students

func (s *Store) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[studentID]
	if !ok {
		return nil, notFound("student", studentID)
	}
	out := cloneStudent(st)
	return &out, nil
}

func (s *Store) UpsertStudent(ctx context.Context, student *models.Student) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next := cloneStudent(*student)
	existing, ok := s.students[student.StudentID]
	if ok && !models.SameEmail(existing.Email, student.Email) {
		return false, ownedByOther(student.StudentID)
	}
	if ok {
		next.Section = existing.Section
		next.ActivatedAt = existing.ActivatedAt
		next.CreatedAt = existing.CreatedAt
		next.Version = existing.Version + 1
	} else {
		next.CreatedAt = now
		next.Version = 1
	}
	next.UpdatedAt = now
	s.students[student.StudentID] = next
	*student = cloneStudent(next)
	return !ok, nil
}

func (s *Store) UpdateStudent(ctx context.Context, studentID string, expectedVersion int64, patch models.StudentPatch) (*models.Student, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[studentID]
	if !ok {
		return nil, notFound("student", studentID)
	}
	if st.Version != expectedVersion {
		return nil, apperrors.NewWriteConflictError(fmt.Sprintf("student %s changed since version %d", studentID, expectedVersion))
	}
	setIf(&st.ContactNumber, patch.ContactNumber)
	setIf(&st.Address, patch.Address)
	setIf(&st.Course, patch.Course)
	setIf(&st.Department, patch.Department)
	setIf(&st.YearLevel, patch.YearLevel)
	setIf(&st.Section, patch.Section)
	if patch.Status != nil {
		st.Status = *patch.Status
	}
	st.UpdatedAt = s.now()
	st.Version++
	s.students[studentID] = st
	out := cloneStudent(st)
	return &out, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Referral requests

func (s *Store) CreateReferral(ctx context.Context, req *models.ReferralRequest) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.referrals[req.ID]; ok {
		return alreadyExists("request", req.ID)
	}
	s.referrals[req.ID] = cloneReferral(*req)
	return nil
}

func (s *Store) GetReferral(ctx context.Context, id string) (*models.ReferralRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.referrals[id]
	if !ok {
		return nil, notFound("request", id)
	}
	out := cloneReferral(req)
	return &out, nil
}

func (s *Store) ListReferrals(ctx context.Context, filter models.ReferralFilter) ([]*models.ReferralRequest, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.ReferralRequest
	for _, req := range s.referrals {
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.StudentID != "" && req.StudentID != filter.StudentID {
			continue
		}
		r := cloneReferral(req)
		matched = append(matched, &r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Offset, filter.Limit), int64(len(matched)), nil
}

func (s *Store) UpdateReferral(ctx context.Context, id string, pre models.ReferralPrecondition, patch models.ReferralPatch) (*models.ReferralRequest, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.referrals[id]
	if !ok {
		return nil, notFound("request", id)
	}
	if req.Status != pre.Status {
		return nil, apperrors.NewWriteConflictError(fmt.Sprintf("request %s is no longer %s", id, pre.Status.Label()))
	}
	if pre.Unrated && req.Rating != nil {
		return nil, apperrors.NewWriteConflictError(fmt.Sprintf("request %s was rated concurrently", id))
	}

	req.Status = patch.Status
	if patch.ReferredBy != nil {
		req.ReferredBy = patch.ReferredBy
	}
	if patch.ReferredByID != nil {
		req.ReferredByID = patch.ReferredByID
	}
	if patch.ReferrerDepartment != nil {
		req.ReferrerDepartment = patch.ReferrerDepartment
	}
	if patch.ReferralNotes != nil {
		req.ReferralNotes = patch.ReferralNotes
	}
	if patch.ScheduledDate != nil {
		req.ScheduledDate = patch.ScheduledDate
	}
	if patch.ScheduledBy != nil {
		req.ScheduledBy = patch.ScheduledBy
	}
	if patch.ScheduledByID != nil {
		req.ScheduledByID = patch.ScheduledByID
	}
	if patch.ResolutionNotes != nil {
		req.ResolutionNotes = patch.ResolutionNotes
	}
	if patch.Rating != nil {
		req.Rating = patch.Rating
	}
	if patch.Feedback != nil {
		req.Feedback = patch.Feedback
	}
	req.UpdatedAt = s.now()
	req.Version++
	s.referrals[id] = cloneReferral(req)
	return &req, nil
}

// Staff accounts

func (s *Store) GetStaffByEmail(ctx context.Context, email string) (*models.StaffAccount, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.staff {
		if models.SameEmail(acct.Email, email) {
			return &acct, nil
		}
	}
	return nil, notFound("staff account", email)
}

func (s *Store) CreateStaff(ctx context.Context, account *models.StaffAccount) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.staff {
		if models.SameEmail(acct.Email, account.Email) {
			return alreadyExists("staff account", account.Email)
		}
	}
	s.staff[account.ID] = *account
	return nil
}
