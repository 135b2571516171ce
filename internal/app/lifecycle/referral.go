// Package lifecycle decides whether a requested status change is legal.
//
// Referral request graph:
//
//	SUBMITTED ──► REFERRED ──► SCHEDULED ────────► COMPLETED
//	    │   PENDING ──┘  │  └─► STAFF_SCHEDULED ──┘
//	    │                │
//	    └────────────────┴──► REJECTED
//
// COMPLETED and REJECTED are terminal. PENDING is a legacy intake state that
// may be forwarded or scheduled directly.
//
// Everything here is pure: callers pass the latest persisted snapshot and
// re-check the precondition at write time.
package lifecycle

import (
	"fmt"

	"github.com/yigit/careportal/internal/app/models"
)

// Action is an operation a role asks the referral engine to perform.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionForward  Action = "forward"
	ActionSchedule Action = "schedule"
	ActionComplete Action = "complete"
	ActionReject   Action = "reject"
	ActionRate     Action = "rate"
)

// Reason is the typed explanation attached to a denial.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonInvalidStateTransition Reason = "InvalidStateTransition"
	ReasonRoleNotPermitted       Reason = "RoleNotPermitted"
	ReasonAlreadyRated           Reason = "AlreadyRated"
	ReasonNotOwner               Reason = "NotOwner"
)

// Decision is the validator verdict.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
	// Target is the status the request moves to when Allowed. For ActionRate
	// it equals the current status.
	Target models.RequestStatus
}

func allow(target models.RequestStatus) Decision {
	return Decision{Allowed: true, Target: target}
}

func deny(reason Reason, format string, args ...any) Decision {
	return Decision{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// edge is one legal move together with the roles allowed to make it.
type edge struct {
	from  models.RequestStatus
	to    models.RequestStatus
	roles []models.Role
}

var referralEdges = []edge{
	{from: models.RequestSubmitted, to: models.RequestReferred, roles: []models.Role{models.RoleDepartmentReferrer, models.RoleCareStaff}},
	{from: models.RequestPending, to: models.RequestReferred, roles: []models.Role{models.RoleDepartmentReferrer, models.RoleCareStaff}},

	{from: models.RequestReferred, to: models.RequestScheduled, roles: []models.Role{models.RoleCareStaff}},
	{from: models.RequestPending, to: models.RequestScheduled, roles: []models.Role{models.RoleCareStaff}},
	{from: models.RequestReferred, to: models.RequestStaffScheduled, roles: []models.Role{models.RoleDepartmentReferrer}},
	{from: models.RequestPending, to: models.RequestStaffScheduled, roles: []models.Role{models.RoleDepartmentReferrer}},

	{from: models.RequestScheduled, to: models.RequestCompleted, roles: []models.Role{models.RoleCareStaff}},
	{from: models.RequestStaffScheduled, to: models.RequestCompleted, roles: []models.Role{models.RoleCareStaff, models.RoleDepartmentReferrer}},

	{from: models.RequestSubmitted, to: models.RequestRejected, roles: []models.Role{models.RoleCareStaff, models.RoleDepartmentReferrer}},
	{from: models.RequestReferred, to: models.RequestRejected, roles: []models.Role{models.RoleCareStaff, models.RoleDepartmentReferrer}},
}

// Successors lists every status reachable from current in one step, for any
// role.
func Successors(current models.RequestStatus) []models.RequestStatus {
	var out []models.RequestStatus
	seen := map[models.RequestStatus]bool{}
	for _, e := range referralEdges {
		if e.from == current && !seen[e.to] {
			seen[e.to] = true
			out = append(out, e.to)
		}
	}
	return out
}

// CanTransition checks the graph and the role gate for current → requested.
func CanTransition(current, requested models.RequestStatus, role models.Role) Decision {
	adjacent := false
	for _, e := range referralEdges {
		if e.from != current || e.to != requested {
			continue
		}
		adjacent = true
		for _, r := range e.roles {
			if r == role {
				return allow(requested)
			}
		}
	}
	if adjacent {
		return deny(ReasonRoleNotPermitted, "role %s may not move a request from %s to %s",
			role, current.Label(), requested.Label())
	}
	return deny(ReasonInvalidStateTransition, "cannot move a request from %s to %s",
		labelOrCode(current), labelOrCode(requested))
}

// Snapshot is the slice of a request the validator needs.
type Snapshot struct {
	Exists    bool
	Status    models.RequestStatus
	StudentID string
	Rated     bool
}

// SnapshotOf builds a Snapshot from a persisted request. A nil request
// yields the pre-creation snapshot.
func SnapshotOf(req *models.ReferralRequest) Snapshot {
	if req == nil {
		return Snapshot{}
	}
	return Snapshot{
		Exists:    true,
		Status:    req.Status,
		StudentID: req.StudentID,
		Rated:     req.Rated(),
	}
}

// Validate resolves action into a target status for the acting role and
// checks it against snapshot.
func Validate(snapshot Snapshot, action Action, actor models.Actor) Decision {
	switch action {
	case ActionSubmit:
		if snapshot.Exists {
			return deny(ReasonInvalidStateTransition, "request already exists in status %s", snapshot.Status.Label())
		}
		if actor.Role != models.RoleStudent {
			return deny(ReasonRoleNotPermitted, "only students may submit requests")
		}
		if snapshot.StudentID != "" && !actor.Owns(snapshot.StudentID) {
			return deny(ReasonNotOwner, "students may only submit their own requests")
		}
		return allow(models.RequestSubmitted)

	case ActionRate:
		if !snapshot.Exists {
			return deny(ReasonInvalidStateTransition, "request does not exist")
		}
		if actor.Role != models.RoleStudent {
			return deny(ReasonRoleNotPermitted, "only the requesting student may rate a request")
		}
		if !actor.Owns(snapshot.StudentID) {
			return deny(ReasonNotOwner, "only the requesting student may rate a request")
		}
		if snapshot.Status != models.RequestCompleted {
			return deny(ReasonInvalidStateTransition, "only completed requests can be rated, current status is %s", snapshot.Status.Label())
		}
		if snapshot.Rated {
			return deny(ReasonAlreadyRated, "request has already been rated")
		}
		return allow(snapshot.Status)
	}

	if !snapshot.Exists {
		return deny(ReasonInvalidStateTransition, "request does not exist")
	}
	target, ok := targetFor(action, actor.Role)
	if !ok {
		return deny(ReasonRoleNotPermitted, "role %s may not %s requests", actor.Role, action)
	}
	return CanTransition(snapshot.Status, target, actor.Role)
}

// targetFor maps an action to the status it produces for the given role.
func targetFor(action Action, role models.Role) (models.RequestStatus, bool) {
	switch action {
	case ActionForward:
		return models.RequestReferred, role.IsStaff()
	case ActionSchedule:
		switch role {
		case models.RoleCareStaff:
			return models.RequestScheduled, true
		case models.RoleDepartmentReferrer:
			return models.RequestStaffScheduled, true
		}
	case ActionComplete:
		return models.RequestCompleted, role.IsStaff()
	case ActionReject:
		return models.RequestRejected, role.IsStaff()
	}
	return "", false
}

// SourcesFor lists the statuses from which action is legal for role. The
// referral engine uses it to phrase conflicts.
func SourcesFor(action Action, role models.Role) []models.RequestStatus {
	target, ok := targetFor(action, role)
	if !ok {
		return nil
	}
	var out []models.RequestStatus
	for _, e := range referralEdges {
		if e.to != target {
			continue
		}
		for _, r := range e.roles {
			if r == role {
				out = append(out, e.from)
				break
			}
		}
	}
	return out
}

func labelOrCode(s models.RequestStatus) string {
	if l := s.Label(); l != "" {
		return l
	}
	return string(s)
}
