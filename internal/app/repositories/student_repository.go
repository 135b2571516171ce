package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/careportal/internal/app/models"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/dberrors"
	"github.com/yigit/careportal/internal/pkg/logger"
)

var studentColumns = append(append([]string{"student_id"}, identityColumns...),
	"course", "department", "year_level", "section", "status", "password_hash",
	"activated_at", "created_at", "updated_at", "version",
)

// upsertAssignments lists the columns refreshed when activation re-runs for
// an existing profile. Section and the activation/creation stamps survive.
// A profile registered to another email is left alone and returns no row.
var upsertAssignments = func() string {
	cols := append(append([]string{}, identityColumns...),
		"course", "department", "year_level", "status", "password_hash")
	out := "ON CONFLICT (student_id) DO UPDATE SET "
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	return out + ", updated_at = EXCLUDED.updated_at, version = students.version + 1" +
		" WHERE lower(students.email) = lower(EXCLUDED.email)"
}()

// StudentRepository handles database operations for student profiles
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetStudent retrieves a profile by student ID
func (r *StudentRepository) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	q := psql.Select(studentColumns...).From(models.TableStudents).Where(squirrel.Eq{"student_id": studentID})
	return queryOne[models.Student](ctx, r.db, q, "student")
}

// UpsertStudent inserts the profile or refreshes an existing one keyed by
// student ID. It reports whether a new row was created.
func (r *StudentRepository) UpsertStudent(ctx context.Context, student *models.Student) (bool, error) {
	now := time.Now().UTC()
	values := append([]any{student.StudentID}, identityValues(student.Identity, student.CoursePreferences)...)
	values = append(values,
		student.Course, student.Department, student.YearLevel, student.Section, student.Status,
		student.PasswordHash, student.ActivatedAt, now, now, 1,
	)

	sql, args, err := psql.Insert(models.TableStudents).
		Columns(studentColumns...).
		Values(values...).
		Suffix(upsertAssignments + " RETURNING section, activated_at, created_at, updated_at, version, (xmax = 0)").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build student upsert: %w", err)
	}

	var inserted bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&student.Section,
		&student.ActivatedAt,
		&student.CreatedAt,
		&student.UpdatedAt,
		&student.Version,
		&inserted,
	)
	if dberrors.IsNoRows(err) {
		return false, apperrors.NewCustomError(apperrors.ErrConflictOwnedByOther,
			fmt.Sprintf("student %s belongs to another account", student.StudentID))
	}
	if err != nil {
		logger.Error().Err(err).Str("studentID", student.StudentID).Msg("Error executing student upsert")
		return false, err
	}
	return inserted, nil
}

// UpdateStudent applies patch while the stored version still equals expectedVersion
func (r *StudentRepository) UpdateStudent(ctx context.Context, studentID string, expectedVersion int64, patch models.StudentPatch) (*models.Student, error) {
	q := psql.Update(models.TableStudents).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1"))

	for column, value := range map[string]*string{
		"contact_number": patch.ContactNumber,
		"address":        patch.Address,
		"course":         patch.Course,
		"department":     patch.Department,
		"year_level":     patch.YearLevel,
		"section":        patch.Section,
	} {
		if value != nil {
			q = q.Set(column, *value)
		}
	}
	if patch.Status != nil {
		q = q.Set("status", *patch.Status)
	}
	q = q.Where(squirrel.Eq{"student_id": studentID, "version": expectedVersion}).Suffix(returning(studentColumns))

	st, err := queryOne[models.Student](ctx, r.db, q, "student")
	if isNotFound(err) {
		return nil, conditionalMiss(ctx, r.db, models.TableStudents, "student_id", studentID, "student")
	}
	return st, err
}
