package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/dberrors"
	"github.com/yigit/careportal/internal/pkg/logger"
)

// psql builds statements with Postgres placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store bundles the Postgres repositories. Through embedding it satisfies
// every store contract the services consume.
type Store struct {
	*ApplicationRepository
	*EnrollmentKeyRepository
	*RosterRepository
	*StudentRepository
	*ReferralRepository
	*StaffRepository
}

// NewStore initializes all repositories on one pool
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		ApplicationRepository:   NewApplicationRepository(db),
		EnrollmentKeyRepository: NewEnrollmentKeyRepository(db),
		RosterRepository:        NewRosterRepository(db),
		StudentRepository:       NewStudentRepository(db),
		ReferralRepository:      NewReferralRepository(db),
		StaffRepository:         NewStaffRepository(db),
	}
}

// queryOne runs a built statement and collects exactly one row into T by
// column name.
func queryOne[T any](ctx context.Context, db *pgxpool.Pool, b squirrel.Sqlizer, what string) (*T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("entity", what).Msg("Error executing query")
		return nil, err
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewResourceNotFoundError(what + " not found")
		}
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	return item, nil
}

// queryList runs a filtered page query plus its count.
func queryList[T any](ctx context.Context, db *pgxpool.Pool, list, count squirrel.SelectBuilder, what string) ([]*T, int64, error) {
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s count: %w", what, err)
	}
	var total int64
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Str("entity", what).Msg("Error executing count query")
		return nil, 0, err
	}
	if total == 0 {
		return []*T{}, 0, nil
	}

	sql, args, err := list.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build %s list: %w", what, err)
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("entity", what).Msg("Error executing list query")
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, 0, fmt.Errorf("scan %s rows: %w", what, err)
	}
	return items, total, nil
}

// exec runs a built statement and returns the affected row count.
func exec(ctx context.Context, db *pgxpool.Pool, b squirrel.Sqlizer, what string) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s statement: %w", what, err)
	}
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return 0, apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, what+" already exists")
		}
		logger.Error().Err(err).Str("entity", what).Msg("Error executing statement")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// conditionalMiss explains a conditional write that matched no row: the
// record is either gone or its precondition no longer holds.
func conditionalMiss(ctx context.Context, db *pgxpool.Pool, table, keyColumn, key, what string) error {
	var exists bool
	sql, args, err := psql.Select("1").From(table).Where(squirrel.Eq{keyColumn: key}).
		Prefix("SELECT EXISTS(").Suffix(")").ToSql()
	if err != nil {
		return fmt.Errorf("build %s existence check: %w", what, err)
	}
	if err := db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.NewResourceNotFoundError(what + " not found")
	}
	return apperrors.NewWriteConflictError(what + " changed concurrently")
}

// isNotFound reports a not-found error from any repository helper.
func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrResourceNotFound)
}

func returning(columns []string) string {
	return "RETURNING " + strings.Join(columns, ", ")
}
