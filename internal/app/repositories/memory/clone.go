package memory

import "github.com/yigit/careportal/internal/app/models"

func dup[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIdentity(i models.Identity) models.Identity {
	i.Birthdate = dup(i.Birthdate)
	return i
}

func cloneApplication(a models.Application) models.Application {
	a.Identity = cloneIdentity(a.Identity)
	a.TestDate = dup(a.TestDate)
	a.TimeIn = dup(a.TimeIn)
	a.TimeOut = dup(a.TimeOut)
	a.StudentID = dup(a.StudentID)
	return a
}

func cloneStudent(s models.Student) models.Student {
	s.Identity = cloneIdentity(s.Identity)
	return s
}

func cloneKey(k models.EnrollmentKey) models.EnrollmentKey {
	k.AssignedToEmail = dup(k.AssignedToEmail)
	return k
}

func cloneReferral(r models.ReferralRequest) models.ReferralRequest {
	r.ReferredBy = dup(r.ReferredBy)
	r.ReferredByID = dup(r.ReferredByID)
	r.ReferrerDepartment = dup(r.ReferrerDepartment)
	r.ReferralNotes = dup(r.ReferralNotes)
	r.ScheduledDate = dup(r.ScheduledDate)
	r.ScheduledBy = dup(r.ScheduledBy)
	r.ScheduledByID = dup(r.ScheduledByID)
	r.ResolutionNotes = dup(r.ResolutionNotes)
	r.Rating = dup(r.Rating)
	r.Feedback = dup(r.Feedback)
	return r
}
