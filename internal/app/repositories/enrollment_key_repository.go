package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/careportal/internal/app/models"
)

const tableRoster = "registrar_roster"

var enrollmentKeyColumns = []string{"student_id", "course", "is_used", "assigned_to_email", "created_at", "updated_at"}

// EnrollmentKeyRepository handles database operations for enrollment keys
type EnrollmentKeyRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentKeyRepository creates a new enrollment key repository
func NewEnrollmentKeyRepository(db *pgxpool.Pool) *EnrollmentKeyRepository {
	return &EnrollmentKeyRepository{db: db}
}

// GetEnrollmentKey retrieves the key for a student ID
func (r *EnrollmentKeyRepository) GetEnrollmentKey(ctx context.Context, studentID string) (*models.EnrollmentKey, error) {
	q := psql.Select(enrollmentKeyColumns...).From(models.TableEnrollmentKeys).Where(squirrel.Eq{"student_id": studentID})
	return queryOne[models.EnrollmentKey](ctx, r.db, q, "enrollment key")
}

// CreateEnrollmentKey inserts an unused key
func (r *EnrollmentKeyRepository) CreateEnrollmentKey(ctx context.Context, key *models.EnrollmentKey) error {
	now := time.Now().UTC()
	key.CreatedAt, key.UpdatedAt = now, now
	q := psql.Insert(models.TableEnrollmentKeys).
		Columns(enrollmentKeyColumns...).
		Values(key.StudentID, key.Course, key.IsUsed, key.AssignedToEmail, key.CreatedAt, key.UpdatedAt)
	_, err := exec(ctx, r.db, q, "enrollment key")
	return err
}

// ClaimEnrollmentKey marks the key used for email while it is still unused
func (r *EnrollmentKeyRepository) ClaimEnrollmentKey(ctx context.Context, studentID, email string) error {
	q := psql.Update(models.TableEnrollmentKeys).
		Set("is_used", true).
		Set("assigned_to_email", email).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"student_id": studentID, "is_used": false})
	return r.conditional(ctx, q, studentID)
}

// releaseGuard keeps a key used once any profile carries its student ID.
var releaseGuard = fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s s WHERE s.student_id = %s.student_id)",
	models.TableStudents, models.TableEnrollmentKeys)

// ReleaseEnrollmentKey returns the key to unused while email still holds it
// and no student profile exists for it
func (r *EnrollmentKeyRepository) ReleaseEnrollmentKey(ctx context.Context, studentID, email string) error {
	q := psql.Update(models.TableEnrollmentKeys).
		Set("is_used", false).
		Set("assigned_to_email", nil).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"student_id": studentID, "is_used": true}).
		Where(squirrel.Expr("lower(assigned_to_email) = lower(?)", email)).
		Where(releaseGuard)
	return r.conditional(ctx, q, studentID)
}

func (r *EnrollmentKeyRepository) conditional(ctx context.Context, q squirrel.UpdateBuilder, studentID string) error {
	n, err := exec(ctx, r.db, q, "enrollment key")
	if err != nil {
		return err
	}
	if n == 0 {
		return conditionalMiss(ctx, r.db, models.TableEnrollmentKeys, "student_id", studentID, "enrollment key")
	}
	return nil
}

// RosterRepository reads the registrar roster
type RosterRepository struct {
	db *pgxpool.Pool
}

// NewRosterRepository creates a new roster repository
func NewRosterRepository(db *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{db: db}
}

// GetRosterEntry retrieves the registrar record for a student ID
func (r *RosterRepository) GetRosterEntry(ctx context.Context, studentID string) (*models.RosterEntry, error) {
	q := psql.Select("student_id", "course", "full_name").From(tableRoster).Where(squirrel.Eq{"student_id": studentID})
	return queryOne[models.RosterEntry](ctx, r.db, q, "roster entry")
}
