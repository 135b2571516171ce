package repositories

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/careportal/internal/app/models"
)

// dbColumns lists the db tags of t, flattening embedded structs the way
// pgx.RowToStructByName does.
func dbColumns(t reflect.Type) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, dbColumns(f.Type)...)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestSelectListsMatchModels(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"application", models.Application{}, applicationColumns},
		{"student", models.Student{}, studentColumns},
		{"referral", models.ReferralRequest{}, referralColumns},
		{"enrollment key", models.EnrollmentKey{}, enrollmentKeyColumns},
		{"staff", models.StaffAccount{}, staffColumns},
		{"roster", models.RosterEntry{}, []string{"student_id", "course", "full_name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := sorted(dbColumns(reflect.TypeOf(tt.model)))
			got := sorted(tt.columns)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("columns = %v\nmodel tags = %v", got, want)
			}
		})
	}
}

func TestUpsertKeepsActivationFields(t *testing.T) {
	for _, kept := range []string{"section =", "activated_at =", "created_at =", "student_id ="} {
		if strings.Contains(upsertAssignments, kept) {
			t.Errorf("upsert must not overwrite %q: %s", kept, upsertAssignments)
		}
	}
	for _, refreshed := range []string{
		"course = EXCLUDED.course",
		"department = EXCLUDED.department",
		"version = students.version + 1",
		"WHERE lower(students.email) = lower(EXCLUDED.email)",
	} {
		if !strings.Contains(upsertAssignments, refreshed) {
			t.Errorf("upsert missing %q", refreshed)
		}
	}
}

func TestConditionalStatusUpdateSQL(t *testing.T) {
	sql, args, err := psql.Update(models.TableApplications).
		Set("status", models.ApplicationPassed).
		Where(squirrel.Eq{"id": "app-1", "status": models.ApplicationTestTaken}).
		Suffix(returning([]string{"id", "status"})).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want := "UPDATE applications SET status = $1 WHERE id = $2 AND status = $3 RETURNING id, status"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v", args)
	}
}

func TestReleaseKeepsKeyBehindExistingStudent(t *testing.T) {
	sql, _, err := psql.Update(models.TableEnrollmentKeys).
		Set("is_used", false).
		Where(squirrel.Eq{"student_id": "2024-0001"}).
		Where(releaseGuard).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want := "UPDATE enrollment_keys SET is_used = $1 WHERE student_id = $2 AND " +
		"NOT EXISTS (SELECT 1 FROM students s WHERE s.student_id = enrollment_keys.student_id)"
	if sql != want {
		t.Errorf("sql = %q\nwant  %q", sql, want)
	}
}
