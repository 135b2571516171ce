// Package catalog maps free-text course names to the college that owns them.
package catalog

import (
	"sort"
	"strings"
)

// FallbackDepartment is used when no rule matches a course name.
const FallbackDepartment = "College of Arts and Sciences"

type rule struct {
	keyword    string
	department string
}

// rules is the fixed course→department table. Matching is case-insensitive
// substring containment. Longer keywords are tried first so the most specific
// rule wins ("secondary education" before "education", "computer science"
// before "science"); equal lengths keep table order.
var rules = sortedRules([]rule{
	{"information technology", "College of Information Technology"},
	{"information system", "College of Information Technology"},
	{"computer science", "College of Information Technology"},
	{"computer engineering", "College of Engineering"},
	{"engineering", "College of Engineering"},
	{"criminology", "College of Criminal Justice Education"},
	{"criminal justice", "College of Criminal Justice Education"},
	{"elementary education", "College of Teacher Education"},
	{"secondary education", "College of Teacher Education"},
	{"physical education", "College of Teacher Education"},
	{"education", "College of Teacher Education"},
	{"business administration", "College of Business Administration"},
	{"accountancy", "College of Business Administration"},
	{"accounting", "College of Business Administration"},
	{"entrepreneurship", "College of Business Administration"},
	{"office administration", "College of Business Administration"},
	{"business", "College of Business Administration"},
	{"hospitality management", "College of Hospitality and Tourism Management"},
	{"tourism management", "College of Hospitality and Tourism Management"},
	{"hospitality", "College of Hospitality and Tourism Management"},
	{"tourism", "College of Hospitality and Tourism Management"},
	{"nursing", "College of Nursing"},
	{"midwifery", "College of Nursing"},
	{"psychology", "College of Arts and Sciences"},
	{"social work", "College of Arts and Sciences"},
})

func sortedRules(in []rule) []rule {
	out := make([]rule, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].keyword) > len(out[j].keyword)
	})
	return out
}

// DepartmentFor returns the department owning course. It never fails; an
// unmatched course yields FallbackDepartment.
func DepartmentFor(course string) string {
	if dept, ok := Lookup(course); ok {
		return dept
	}
	return FallbackDepartment
}

// Lookup reports the matched department and whether any rule matched.
func Lookup(course string) (string, bool) {
	normalized := normalize(course)
	if normalized == "" {
		return "", false
	}
	for _, r := range rules {
		if strings.Contains(normalized, r.keyword) {
			return r.department, true
		}
	}
	return "", false
}

// SameCourse compares two course names case-insensitively, ignoring
// surrounding and repeated whitespace.
func SameCourse(a, b string) bool {
	return normalize(a) == normalize(b)
}

// Departments lists every distinct department in the table plus the
// fallback, in table order.
func Departments() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rules {
		if !seen[r.department] {
			seen[r.department] = true
			out = append(out, r.department)
		}
	}
	if !seen[FallbackDepartment] {
		out = append(out, FallbackDepartment)
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
