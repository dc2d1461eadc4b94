package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feebridge/feebridge/internal/domain/fee"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type feeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewFeeRepository(db *postgres.DB, logger *logger.Logger) fee.Repository {
	return &feeRepository{db: db, logger: logger}
}

func (r *feeRepository) Create(ctx context.Context, f *fee.Fee) error {
	r.logger.Debugw("creating fee", "fee_id", f.ID, "tenant_id", f.TenantID)

	query := `
		INSERT INTO fees (
			id, tenant_id, name, description, fee_type, amount,
			is_recurring, recurring_frequency, active,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :name, :description, :fee_type, :amount,
			:is_recurring, :recurring_frequency, :active,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, f)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("A fee with the name %s already exists", f.Name).
				WithReportableDetails(map[string]any{"name": f.Name}).
				Mark(ierr.ErrAlreadyExists)
		}
		return wrapDBError(err, "Failed to create fee")
	}
	return nil
}

func (r *feeRepository) Get(ctx context.Context, id string) (*fee.Fee, error) {
	var f fee.Fee
	query := `
		SELECT * FROM fees
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &f, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("fee not found").
				WithHintf("Fee with ID %s was not found", id).
				WithReportableDetails(map[string]any{"fee_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get fee")
	}
	return &f, nil
}

func (r *feeRepository) GetByName(ctx context.Context, name string) (*fee.Fee, error) {
	var f fee.Fee
	query := `
		SELECT * FROM fees
		WHERE name = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &f, query, name, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("fee not found").
				WithHintf("Fee with name %s was not found", name).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get fee by name")
	}
	return &f, nil
}

func (r *feeRepository) List(ctx context.Context, filter *types.FeeFilter) ([]*fee.Fee, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT * FROM fees WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.FeeType != nil {
			query += ` AND fee_type = :fee_type`
			args["fee_type"] = *filter.FeeType
		}
		if filter.RecurringOnly {
			query += ` AND is_recurring = true`
		}
	}
	query += ` ORDER BY name ASC`
	if filter != nil && filter.GetLimit() > 0 {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list fees")
	}
	defer rows.Close()

	fees := make([]*fee.Fee, 0)
	for rows.Next() {
		var f fee.Fee
		if err := rows.StructScan(&f); err != nil {
			return nil, wrapDBError(err, "Failed to scan fee")
		}
		fees = append(fees, &f)
	}
	return fees, rows.Err()
}

func (r *feeRepository) Count(ctx context.Context, filter *types.FeeFilter) (int, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT COUNT(*) FROM fees WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.FeeType != nil {
			query += ` AND fee_type = :fee_type`
			args["fee_type"] = *filter.FeeType
		}
		if filter.RecurringOnly {
			query += ` AND is_recurring = true`
		}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, wrapDBError(err, "Failed to count fees")
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, wrapDBError(err, "Failed to count fees")
		}
	}
	return count, rows.Err()
}
