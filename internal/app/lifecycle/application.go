package lifecycle

import "github.com/yigit/careportal/internal/app/models"

// Application readiness: APPLIED → ONGOING → TEST_TAKEN → PASSED | FAILED.
var applicationNext = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationApplied:   {models.ApplicationOngoing},
	models.ApplicationOngoing:   {models.ApplicationTestTaken},
	models.ApplicationTestTaken: {models.ApplicationPassed, models.ApplicationFailed},
}

// ApplicationDecision is the verdict for an application status change.
type ApplicationDecision struct {
	Allowed bool
	Reason  Reason
	Message string
}

// CanTransitionApplication checks an application status change. Applicants
// only move themselves through test day (time-in, time-out); CARE staff may
// apply any adjacent move.
func CanTransitionApplication(current, requested models.ApplicationStatus, role models.Role) ApplicationDecision {
	adjacent := false
	for _, next := range applicationNext[current] {
		if next == requested {
			adjacent = true
			break
		}
	}
	if !adjacent {
		return ApplicationDecision{
			Reason:  ReasonInvalidStateTransition,
			Message: "cannot move an application from " + current.Label() + " to " + requested.Label(),
		}
	}

	switch role {
	case models.RoleCareStaff:
		return ApplicationDecision{Allowed: true}
	case models.RoleApplicant:
		if requested == models.ApplicationOngoing || requested == models.ApplicationTestTaken {
			return ApplicationDecision{Allowed: true}
		}
	}
	return ApplicationDecision{
		Reason:  ReasonRoleNotPermitted,
		Message: "role " + string(role) + " may not set an application to " + requested.Label(),
	}
}

// EligibleForActivation is true only for PASSED applications.
func EligibleForActivation(status models.ApplicationStatus) bool {
	return status == models.ApplicationPassed
}
