package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/careportal/internal/app/models"
)

var referralColumns = []string{
	"id", "kind", "student_id", "status", "category", "reason", "description",
	"referred_by", "referred_by_id", "referrer_department", "referral_notes",
	"scheduled_date", "scheduled_by", "scheduled_by_id",
	"resolution_notes", "rating", "feedback", "created_at", "updated_at", "version",
}

// ReferralRepository handles database operations for counseling and support requests
type ReferralRepository struct {
	db *pgxpool.Pool
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// CreateReferral inserts a new request
func (r *ReferralRepository) CreateReferral(ctx context.Context, req *models.ReferralRequest) error {
	q := psql.Insert(models.TableReferralRequests).
		Columns(referralColumns...).
		Values(
			req.ID, req.Kind, req.StudentID, req.Status, req.Category, req.Reason, req.Description,
			req.ReferredBy, req.ReferredByID, req.ReferrerDepartment, req.ReferralNotes,
			req.ScheduledDate, req.ScheduledBy, req.ScheduledByID,
			req.ResolutionNotes, req.Rating, req.Feedback, req.CreatedAt, req.UpdatedAt, req.Version,
		)
	_, err := exec(ctx, r.db, q, "request")
	return err
}

// GetReferral retrieves a request by ID
func (r *ReferralRepository) GetReferral(ctx context.Context, id string) (*models.ReferralRequest, error) {
	q := psql.Select(referralColumns...).From(models.TableReferralRequests).Where(squirrel.Eq{"id": id})
	return queryOne[models.ReferralRequest](ctx, r.db, q, "request")
}

// ListReferrals returns one page of requests, newest first
func (r *ReferralRepository) ListReferrals(ctx context.Context, filter models.ReferralFilter) ([]*models.ReferralRequest, int64, error) {
	where := squirrel.Eq{}
	if filter.Kind != "" {
		where["kind"] = filter.Kind
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if filter.StudentID != "" {
		where["student_id"] = filter.StudentID
	}

	list := psql.Select(referralColumns...).From(models.TableReferralRequests).Where(where).
		OrderBy("created_at DESC", "id").Offset(filter.Offset)
	if filter.Limit > 0 {
		list = list.Limit(uint64(filter.Limit))
	}
	count := psql.Select("count(*)").From(models.TableReferralRequests).Where(where)
	return queryList[models.ReferralRequest](ctx, r.db, list, count, "request")
}

// UpdateReferral writes patch only while pre still holds
func (r *ReferralRepository) UpdateReferral(ctx context.Context, id string, pre models.ReferralPrecondition, patch models.ReferralPatch) (*models.ReferralRequest, error) {
	q := psql.Update(models.TableReferralRequests).
		Set("status", patch.Status).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1"))

	for column, value := range map[string]*string{
		"referred_by":         patch.ReferredBy,
		"referred_by_id":      patch.ReferredByID,
		"referrer_department": patch.ReferrerDepartment,
		"referral_notes":      patch.ReferralNotes,
		"scheduled_by":        patch.ScheduledBy,
		"scheduled_by_id":     patch.ScheduledByID,
		"resolution_notes":    patch.ResolutionNotes,
		"feedback":            patch.Feedback,
	} {
		if value != nil {
			q = q.Set(column, *value)
		}
	}
	if patch.ScheduledDate != nil {
		q = q.Set("scheduled_date", *patch.ScheduledDate)
	}
	if patch.Rating != nil {
		q = q.Set("rating", *patch.Rating)
	}

	q = q.Where(squirrel.Eq{"id": id, "status": pre.Status})
	if pre.Unrated {
		q = q.Where(squirrel.Eq{"rating": nil})
	}
	q = q.Suffix(returning(referralColumns))

	req, err := queryOne[models.ReferralRequest](ctx, r.db, q, "request")
	if isNotFound(err) {
		return nil, conditionalMiss(ctx, r.db, models.TableReferralRequests, "id", id, "request")
	}
	return req, err
}
