package models

import "strings"

// ApplicationStatus is the activation readiness of an Application.
type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "APPLIED"
	ApplicationOngoing   ApplicationStatus = "ONGOING"
	ApplicationTestTaken ApplicationStatus = "TEST_TAKEN"
	ApplicationPassed    ApplicationStatus = "PASSED"
	ApplicationFailed    ApplicationStatus = "FAILED"
)

var applicationLabels = map[ApplicationStatus]string{
	ApplicationApplied:   "Applied",
	ApplicationOngoing:   "Ongoing",
	ApplicationTestTaken: "Test Taken",
	ApplicationPassed:    "Passed",
	ApplicationFailed:    "Failed",
}

// Label is the display text for the status.
func (s ApplicationStatus) Label() string {
	return applicationLabels[s]
}

// ParseApplicationStatus accepts a status code or its display label.
func ParseApplicationStatus(value string) (ApplicationStatus, bool) {
	s, ok := parseStatus(value, applicationLabels)
	return ApplicationStatus(s), ok
}

// RequestStatus is the state of a counseling or support request.
type RequestStatus string

const (
	RequestSubmitted      RequestStatus = "SUBMITTED"
	RequestPending        RequestStatus = "PENDING"
	RequestReferred       RequestStatus = "REFERRED"
	RequestScheduled      RequestStatus = "SCHEDULED"
	RequestStaffScheduled RequestStatus = "STAFF_SCHEDULED"
	RequestCompleted      RequestStatus = "COMPLETED"
	RequestRejected       RequestStatus = "REJECTED"
)

var requestLabels = map[RequestStatus]string{
	RequestSubmitted:      "Submitted",
	RequestPending:        "Pending",
	RequestReferred:       "Referred",
	RequestScheduled:      "Scheduled",
	RequestStaffScheduled: "Staff Scheduled",
	RequestCompleted:      "Completed",
	RequestRejected:       "Rejected",
}

// Label is the display text for the status.
func (s RequestStatus) Label() string {
	return requestLabels[s]
}

// Terminal reports whether no further transition is defined.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestRejected
}

// ParseRequestStatus accepts a status code or its display label.
func ParseRequestStatus(value string) (RequestStatus, bool) {
	s, ok := parseStatus(value, requestLabels)
	return RequestStatus(s), ok
}

// StudentStatus is the enrollment state of a Student profile.
type StudentStatus string

const (
	StudentActive   StudentStatus = "ACTIVE"
	StudentInactive StudentStatus = "INACTIVE"
)

// RequestKind distinguishes the two request families sharing one workflow.
type RequestKind string

const (
	KindCounseling RequestKind = "COUNSELING"
	KindSupport    RequestKind = "SUPPORT"
)

// ParseRequestKind is case-insensitive.
func ParseRequestKind(value string) (RequestKind, bool) {
	switch RequestKind(strings.ToUpper(strings.TrimSpace(value))) {
	case KindCounseling:
		return KindCounseling, true
	case KindSupport:
		return KindSupport, true
	}
	return "", false
}

func parseStatus[S ~string](value string, labels map[S]string) (S, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	code := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(trimmed))
	for status, label := range labels {
		if string(status) == code || strings.EqualFold(label, trimmed) {
			return status, true
		}
	}
	return "", false
}
