package catalog

import "testing"

func TestDepartmentFor(t *testing.T) {
	tests := []struct {
		course string
		want   string
	}{
		{"BS Information Technology", "College of Information Technology"},
		{"bs   information   TECHNOLOGY", "College of Information Technology"},
		{"BS Computer Science", "College of Information Technology"},
		{"BS Computer Engineering", "College of Engineering"},
		{"BS Criminology", "College of Criminal Justice Education"},
		{"Bachelor of Secondary Education major in Business", "College of Teacher Education"},
		{"BS Business Administration major in Marketing", "College of Business Administration"},
		{"BS Hospitality Management", "College of Hospitality and Tourism Management"},
		{"BS Nursing", "College of Nursing"},
		{"BA Political Science", FallbackDepartment},
		{"", FallbackDepartment},
	}
	for _, tt := range tests {
		t.Run(tt.course, func(t *testing.T) {
			if got := DepartmentFor(tt.course); got != tt.want {
				t.Fatalf("DepartmentFor(%q) = %q, want %q", tt.course, got, tt.want)
			}
		})
	}
}

func TestLookupReportsMiss(t *testing.T) {
	if _, ok := Lookup("BA Political Science"); ok {
		t.Fatal("expected no match")
	}
	if dept, ok := Lookup("AB Psychology"); !ok || dept != "College of Arts and Sciences" {
		t.Fatalf("Lookup = %q, %v", dept, ok)
	}
}

func TestRulesOrderedBySpecificity(t *testing.T) {
	for i := 1; i < len(rules); i++ {
		if len(rules[i].keyword) > len(rules[i-1].keyword) {
			t.Fatalf("rule %q precedes longer rule %q", rules[i-1].keyword, rules[i].keyword)
		}
	}
}

func TestSameCourse(t *testing.T) {
	if !SameCourse("BS Information Technology", " bs information  technology ") {
		t.Fatal("expected courses to match")
	}
	if SameCourse("BS Information Technology", "BS Criminology") {
		t.Fatal("expected courses to differ")
	}
}

func TestDepartmentsIncludesFallback(t *testing.T) {
	found := false
	for _, d := range Departments() {
		if d == FallbackDepartment {
			found = true
		}
	}
	if !found {
		t.Fatal("fallback department missing")
	}
}
