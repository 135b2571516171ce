package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/careportal/internal/app/models"
)

var identityColumns = []string{
	"first_name", "middle_name", "last_name", "suffix", "email", "contact_number",
	"sex", "birthdate", "address", "is_pwd", "disability", "is_indigenous",
	"is_solo_parent", "is_working_student",
	"first_choice", "second_choice", "third_choice",
}

var applicationColumns = append(append([]string{"id"}, identityColumns...),
	"test_date", "username", "password_hash", "status", "time_in", "time_out",
	"student_id", "created_at", "updated_at", "version",
)

func identityValues(i models.Identity, c models.CoursePreferences) []any {
	return []any{
		i.FirstName, i.MiddleName, i.LastName, i.Suffix, i.Email, i.ContactNumber,
		i.Sex, i.Birthdate, i.Address, i.IsPWD, i.Disability, i.IsIndigenous,
		i.IsSoloParent, i.IsWorkingStudent,
		c.FirstChoice, c.SecondChoice, c.ThirdChoice,
	}
}

// ApplicationRepository handles database operations for applications
type ApplicationRepository struct {
	db *pgxpool.Pool
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) selectApplications() squirrel.SelectBuilder {
	return psql.Select(applicationColumns...).From(models.TableApplications)
}

// CreateApplication inserts a new application
func (r *ApplicationRepository) CreateApplication(ctx context.Context, app *models.Application) error {
	values := append([]any{app.ID}, identityValues(app.Identity, app.CoursePreferences)...)
	values = append(values,
		app.TestDate, app.Username, app.PasswordHash, app.Status, app.TimeIn, app.TimeOut,
		app.StudentID, app.CreatedAt, app.UpdatedAt, app.Version,
	)
	_, err := exec(ctx, r.db, psql.Insert(models.TableApplications).Columns(applicationColumns...).Values(values...), "application")
	return err
}

// GetApplication retrieves an application by ID
func (r *ApplicationRepository) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return queryOne[models.Application](ctx, r.db, r.selectApplications().Where(squirrel.Eq{"id": id}), "application")
}

// GetApplicationByUsername retrieves an application by its portal username
func (r *ApplicationRepository) GetApplicationByUsername(ctx context.Context, username string) (*models.Application, error) {
	q := r.selectApplications().Where(squirrel.Expr("lower(username) = lower(?)", username))
	return queryOne[models.Application](ctx, r.db, q, "application")
}

// ListApplications returns one page of applications, newest first
func (r *ApplicationRepository) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	list := r.selectApplications()
	count := psql.Select("count(*)").From(models.TableApplications)
	if filter.Status != "" {
		list = list.Where(squirrel.Eq{"status": filter.Status})
		count = count.Where(squirrel.Eq{"status": filter.Status})
	}
	list = list.OrderBy("created_at DESC", "id").Offset(filter.Offset)
	if filter.Limit > 0 {
		list = list.Limit(uint64(filter.Limit))
	}
	return queryList[models.Application](ctx, r.db, list, count, "application")
}

// UpdateApplicationStatus applies patch while the stored status still equals expected
func (r *ApplicationRepository) UpdateApplicationStatus(ctx context.Context, id string, expected models.ApplicationStatus, patch models.ApplicationPatch) (*models.Application, error) {
	q := psql.Update(models.TableApplications).
		Set("status", patch.Status).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1"))
	if patch.TimeIn != nil {
		q = q.Set("time_in", *patch.TimeIn)
	}
	if patch.TimeOut != nil {
		q = q.Set("time_out", *patch.TimeOut)
	}
	q = q.Where(squirrel.Eq{"id": id, "status": expected}).Suffix(returning(applicationColumns))

	app, err := queryOne[models.Application](ctx, r.db, q, "application")
	if isNotFound(err) {
		return nil, conditionalMiss(ctx, r.db, models.TableApplications, "id", id, "application")
	}
	return app, err
}

// MarkApplicationConsumed stamps the activated student ID on the application
func (r *ApplicationRepository) MarkApplicationConsumed(ctx context.Context, id, studentID string) error {
	q := psql.Update(models.TableApplications).
		Set("student_id", studentID).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Or{squirrel.Eq{"student_id": nil}, squirrel.Eq{"student_id": studentID}})

	n, err := exec(ctx, r.db, q, "application")
	if err != nil {
		return err
	}
	if n == 0 {
		return conditionalMiss(ctx, r.db, models.TableApplications, "id", id, "application")
	}
	return nil
}

// DeleteApplication removes a consumed application
func (r *ApplicationRepository) DeleteApplication(ctx context.Context, id string) error {
	n, err := exec(ctx, r.db, psql.Delete(models.TableApplications).Where(squirrel.Eq{"id": id}), "application")
	if err != nil {
		return err
	}
	if n == 0 {
		return conditionalMiss(ctx, r.db, models.TableApplications, "id", id, "application")
	}
	return nil
}

// StudentIDClaimedByOther reports whether another application carries studentID
func (r *ApplicationRepository) StudentIDClaimedByOther(ctx context.Context, studentID, applicationID string) (bool, error) {
	sql, args, err := psql.Select("1").From(models.TableApplications).
		Where(squirrel.Eq{"student_id": studentID}).
		Where(squirrel.NotEq{"id": applicationID}).
		Prefix("SELECT EXISTS(").Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}
	var claimed bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&claimed); err != nil {
		return false, err
	}
	return claimed, nil
}
