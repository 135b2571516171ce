package models

import "strings"

// Role identifies who is acting on the engine. It is carried in the access
// token and passed explicitly into every service operation.
type Role string

const (
	RoleApplicant          Role = "APPLICANT"
	RoleStudent            Role = "STUDENT"
	RoleDepartmentReferrer Role = "DEPARTMENT_REFERRER"
	RoleCareStaff          Role = "CARE_STAFF"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleStudent, RoleDepartmentReferrer, RoleCareStaff:
		return true
	}
	return false
}

// IsStaff is true for the roles that work the administrative console.
func (r Role) IsStaff() bool {
	return r == RoleCareStaff || r == RoleDepartmentReferrer
}

// Actor is the identity performing an operation.
type Actor struct {
	Role  Role   `json:"role"`
	Email string `json:"email"`
	// SubjectID is the application id for applicants, the student id for
	// students and the staff account id for staff roles.
	SubjectID  string `json:"subjectId"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
}

// Owns reports whether the actor is the student identified by studentID.
func (a Actor) Owns(studentID string) bool {
	return a.Role == RoleStudent && a.SubjectID != "" && a.SubjectID == studentID
}

// SameEmail compares emails the way accounts are matched everywhere else.
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Identity holds the identity, contact and demographic fields shared by
// Application and Student. Activation copies it verbatim.
type Identity struct {
	FirstName        string  `json:"firstName" db:"first_name"`
	MiddleName       string  `json:"middleName,omitempty" db:"middle_name"`
	LastName         string  `json:"lastName" db:"last_name"`
	Suffix           string  `json:"suffix,omitempty" db:"suffix"`
	Email            string  `json:"email" db:"email"`
	ContactNumber    string  `json:"contactNumber,omitempty" db:"contact_number"`
	Sex              string  `json:"sex,omitempty" db:"sex"`
	Birthdate        *string `json:"birthdate,omitempty" db:"birthdate"` // YYYY-MM-DD
	Address          string  `json:"address,omitempty" db:"address"`
	IsPWD            bool    `json:"isPwd" db:"is_pwd"`
	Disability       string  `json:"disability,omitempty" db:"disability"`
	IsIndigenous     bool    `json:"isIndigenous" db:"is_indigenous"`
	IsSoloParent     bool    `json:"isSoloParent" db:"is_solo_parent"`
	IsWorkingStudent bool    `json:"isWorkingStudent" db:"is_working_student"`
}

// FullName joins the name parts, skipping empty ones.
func (i Identity) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{i.FirstName, i.MiddleName, i.LastName, i.Suffix} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// CoursePreferences is the ranked list of up to three courses.
type CoursePreferences struct {
	FirstChoice  string `json:"firstChoice" db:"first_choice"`
	SecondChoice string `json:"secondChoice,omitempty" db:"second_choice"`
	ThirdChoice  string `json:"thirdChoice,omitempty" db:"third_choice"`
}

// Table names identify record families on the change feed.
const (
	TableApplications     = "applications"
	TableStudents         = "students"
	TableEnrollmentKeys   = "enrollment_keys"
	TableReferralRequests = "referral_requests"
)
