package lifecycle

import (
	"testing"

	"github.com/yigit/careportal/internal/app/models"
)

var (
	student  = models.Actor{Role: models.RoleStudent, SubjectID: "2026-0001", Email: "ana@example.edu"}
	referrer = models.Actor{Role: models.RoleDepartmentReferrer, SubjectID: "staff-2", Email: "dean@example.edu"}
	staff    = models.Actor{Role: models.RoleCareStaff, SubjectID: "staff-1", Email: "care@example.edu"}
)

func TestSuccessorsOfSubmitted(t *testing.T) {
	got := Successors(models.RequestSubmitted)
	want := map[models.RequestStatus]bool{models.RequestReferred: true, models.RequestRejected: true}
	if len(got) != len(want) {
		t.Fatalf("successors = %v, want %v", got, want)
	}
	for _, s := range got {
		if !want[s] {
			t.Fatalf("unexpected successor %s", s)
		}
	}
}

func TestTerminalStatesHaveNoSuccessors(t *testing.T) {
	for _, s := range []models.RequestStatus{models.RequestCompleted, models.RequestRejected} {
		if got := Successors(s); len(got) != 0 {
			t.Fatalf("successors of %s = %v, want none", s, got)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from, to models.RequestStatus
		role     models.Role
		allowed  bool
		reason   Reason
	}{
		{"submitted to completed is never adjacent", models.RequestSubmitted, models.RequestCompleted, models.RoleCareStaff, false, ReasonInvalidStateTransition},
		{"referrer forwards", models.RequestSubmitted, models.RequestReferred, models.RoleDepartmentReferrer, true, ReasonNone},
		{"pending forwards", models.RequestPending, models.RequestReferred, models.RoleCareStaff, true, ReasonNone},
		{"student cannot forward", models.RequestSubmitted, models.RequestReferred, models.RoleStudent, false, ReasonRoleNotPermitted},
		{"staff schedules", models.RequestReferred, models.RequestScheduled, models.RoleCareStaff, true, ReasonNone},
		{"referrer cannot produce scheduled", models.RequestReferred, models.RequestScheduled, models.RoleDepartmentReferrer, false, ReasonRoleNotPermitted},
		{"referrer produces staff scheduled", models.RequestReferred, models.RequestStaffScheduled, models.RoleDepartmentReferrer, true, ReasonNone},
		{"submitted cannot be scheduled", models.RequestSubmitted, models.RequestScheduled, models.RoleCareStaff, false, ReasonInvalidStateTransition},
		{"staff completes staff scheduled", models.RequestStaffScheduled, models.RequestCompleted, models.RoleCareStaff, true, ReasonNone},
		{"referrer cannot complete scheduled", models.RequestScheduled, models.RequestCompleted, models.RoleDepartmentReferrer, false, ReasonRoleNotPermitted},
		{"scheduled cannot be rejected", models.RequestScheduled, models.RequestRejected, models.RoleCareStaff, false, ReasonInvalidStateTransition},
		{"completed is terminal", models.RequestCompleted, models.RequestRejected, models.RoleCareStaff, false, ReasonInvalidStateTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanTransition(tt.from, tt.to, tt.role)
			if d.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v (%s)", d.Allowed, tt.allowed, d.Message)
			}
			if d.Reason != tt.reason {
				t.Fatalf("reason = %q, want %q", d.Reason, tt.reason)
			}
			if d.Allowed && d.Target != tt.to {
				t.Fatalf("target = %s, want %s", d.Target, tt.to)
			}
		})
	}
}

func TestValidateSubmit(t *testing.T) {
	d := Validate(Snapshot{StudentID: student.SubjectID}, ActionSubmit, student)
	if !d.Allowed || d.Target != models.RequestSubmitted {
		t.Fatalf("decision = %+v, want submitted", d)
	}

	d = Validate(Snapshot{StudentID: "2026-9999"}, ActionSubmit, student)
	if d.Allowed || d.Reason != ReasonNotOwner {
		t.Fatalf("decision = %+v, want NotOwner", d)
	}

	d = Validate(Snapshot{}, ActionSubmit, staff)
	if d.Allowed || d.Reason != ReasonRoleNotPermitted {
		t.Fatalf("decision = %+v, want RoleNotPermitted", d)
	}

	d = Validate(Snapshot{Exists: true, Status: models.RequestSubmitted}, ActionSubmit, student)
	if d.Allowed || d.Reason != ReasonInvalidStateTransition {
		t.Fatalf("decision = %+v, want InvalidStateTransition", d)
	}
}

func TestValidateScheduleDependsOnRole(t *testing.T) {
	snap := Snapshot{Exists: true, Status: models.RequestReferred, StudentID: student.SubjectID}

	if d := Validate(snap, ActionSchedule, staff); !d.Allowed || d.Target != models.RequestScheduled {
		t.Fatalf("staff decision = %+v, want scheduled", d)
	}
	if d := Validate(snap, ActionSchedule, referrer); !d.Allowed || d.Target != models.RequestStaffScheduled {
		t.Fatalf("referrer decision = %+v, want staff scheduled", d)
	}
	if d := Validate(snap, ActionSchedule, student); d.Allowed || d.Reason != ReasonRoleNotPermitted {
		t.Fatalf("student decision = %+v, want RoleNotPermitted", d)
	}
}

func TestValidateRate(t *testing.T) {
	completed := Snapshot{Exists: true, Status: models.RequestCompleted, StudentID: student.SubjectID}

	tests := []struct {
		name   string
		snap   Snapshot
		actor  models.Actor
		reason Reason
	}{
		{"owner rates completed", completed, student, ReasonNone},
		{"second rating denied", Snapshot{Exists: true, Status: models.RequestCompleted, StudentID: student.SubjectID, Rated: true}, student, ReasonAlreadyRated},
		{"not completed", Snapshot{Exists: true, Status: models.RequestScheduled, StudentID: student.SubjectID}, student, ReasonInvalidStateTransition},
		{"other student", completed, models.Actor{Role: models.RoleStudent, SubjectID: "2026-0002"}, ReasonNotOwner},
		{"staff cannot rate", completed, staff, ReasonRoleNotPermitted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Validate(tt.snap, ActionRate, tt.actor)
			if d.Reason != tt.reason {
				t.Fatalf("reason = %q, want %q (%s)", d.Reason, tt.reason, d.Message)
			}
			if d.Allowed != (tt.reason == ReasonNone) {
				t.Fatalf("allowed = %v", d.Allowed)
			}
		})
	}
}

func TestSourcesFor(t *testing.T) {
	got := SourcesFor(ActionReject, models.RoleCareStaff)
	if len(got) != 2 || got[0] != models.RequestSubmitted || got[1] != models.RequestReferred {
		t.Fatalf("reject sources = %v", got)
	}
	if got := SourcesFor(ActionSchedule, models.RoleStudent); got != nil {
		t.Fatalf("student schedule sources = %v, want nil", got)
	}
}

func TestCanTransitionApplication(t *testing.T) {
	tests := []struct {
		name     string
		from, to models.ApplicationStatus
		role     models.Role
		allowed  bool
	}{
		{"applicant times in", models.ApplicationApplied, models.ApplicationOngoing, models.RoleApplicant, true},
		{"applicant times out", models.ApplicationOngoing, models.ApplicationTestTaken, models.RoleApplicant, true},
		{"applicant cannot pass self", models.ApplicationTestTaken, models.ApplicationPassed, models.RoleApplicant, false},
		{"staff passes", models.ApplicationTestTaken, models.ApplicationPassed, models.RoleCareStaff, true},
		{"staff fails", models.ApplicationTestTaken, models.ApplicationFailed, models.RoleCareStaff, true},
		{"no skipping", models.ApplicationApplied, models.ApplicationPassed, models.RoleCareStaff, false},
		{"failed is final", models.ApplicationFailed, models.ApplicationPassed, models.RoleCareStaff, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := CanTransitionApplication(tt.from, tt.to, tt.role); d.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v (%s)", d.Allowed, tt.allowed, d.Message)
			}
		})
	}
}
