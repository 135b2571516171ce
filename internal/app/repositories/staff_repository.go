package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/careportal/internal/app/models"
)

const tableStaff = "staff_accounts"

var staffColumns = []string{"id", "email", "password_hash", "full_name", "role", "department", "created_at"}

// StaffRepository handles database operations for console accounts
type StaffRepository struct {
	db *pgxpool.Pool
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{db: db}
}

// GetStaffByEmail retrieves an account by email, case-insensitively
func (r *StaffRepository) GetStaffByEmail(ctx context.Context, email string) (*models.StaffAccount, error) {
	q := psql.Select(staffColumns...).From(tableStaff).Where(squirrel.Expr("lower(email) = lower(?)", email))
	return queryOne[models.StaffAccount](ctx, r.db, q, "staff account")
}

// CreateStaff inserts a new account
func (r *StaffRepository) CreateStaff(ctx context.Context, account *models.StaffAccount) error {
	q := psql.Insert(tableStaff).
		Columns(staffColumns...).
		Values(account.ID, account.Email, account.PasswordHash, account.FullName, account.Role, account.Department, account.CreatedAt)
	_, err := exec(ctx, r.db, q, "staff account")
	return err
}
