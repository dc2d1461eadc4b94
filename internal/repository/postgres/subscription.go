package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/feebridge/feebridge/internal/domain/subscription"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	r.logger.Debugw("creating subscription",
		"subscription_id", s.ID,
		"plan_id", s.PlanID,
		"tenant_id", s.TenantID)

	query := `
		INSERT INTO subscriptions (
			id, tenant_id, plan_id, subscription_status, start_date, end_date,
			auto_renew, activated_at, cancelled_at, cancelled_by, cancellation_reason,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :plan_id, :subscription_status, :start_date, :end_date,
			:auto_renew, :activated_at, :cancelled_at, :cancelled_by, :cancellation_reason,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return wrapDBError(err, "Failed to create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("subscription not found").
				WithHintf("Subscription with ID %s was not found", id).
				WithReportableDetails(map[string]any{"subscription_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get subscription")
	}
	return &s, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	r.logger.Debugw("updating subscription",
		"subscription_id", s.ID,
		"subscription_status", s.SubscriptionStatus)

	query := `
		UPDATE subscriptions SET
			subscription_status = :subscription_status,
			start_date = :start_date,
			end_date = :end_date,
			auto_renew = :auto_renew,
			activated_at = :activated_at,
			cancelled_at = :cancelled_at,
			cancelled_by = :cancelled_by,
			cancellation_reason = :cancellation_reason,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return wrapDBError(err, "Failed to update subscription")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError(err, "Failed to update subscription")
	}
	if rows == 0 {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", s.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT * FROM subscriptions WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.PlanID != nil {
			query += ` AND plan_id = :plan_id`
			args["plan_id"] = *filter.PlanID
		}
		if filter.SubscriptionStatus != nil {
			query += ` AND subscription_status = :subscription_status`
			args["subscription_status"] = *filter.SubscriptionStatus
		}
		if filter.TimeRangeFilter != nil {
			if filter.StartTime != nil {
				query += ` AND start_date >= :start_time`
				args["start_time"] = *filter.StartTime
			}
			if filter.EndTime != nil {
				query += ` AND start_date <= :end_time`
				args["end_time"] = *filter.EndTime
			}
		}
	}
	query += ` ORDER BY created_at DESC`
	if filter != nil && filter.GetLimit() > 0 {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list subscriptions")
	}
	defer rows.Close()

	subs := make([]*subscription.Subscription, 0)
	for rows.Next() {
		var s subscription.Subscription
		if err := rows.StructScan(&s); err != nil {
			return nil, wrapDBError(err, "Failed to scan subscription")
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT COUNT(*) FROM subscriptions WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.PlanID != nil {
			query += ` AND plan_id = :plan_id`
			args["plan_id"] = *filter.PlanID
		}
		if filter.SubscriptionStatus != nil {
			query += ` AND subscription_status = :subscription_status`
			args["subscription_status"] = *filter.SubscriptionStatus
		}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, wrapDBError(err, "Failed to count subscriptions")
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, wrapDBError(err, "Failed to count subscriptions")
		}
	}
	return count, rows.Err()
}

func (r *subscriptionRepository) ListExpiring(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	var subs []*subscription.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE subscription_status = $1 AND end_date <= $2 AND status = $3
		ORDER BY end_date ASC`

	err := r.db.Querier(ctx).SelectContext(ctx, &subs, query,
		types.SubscriptionStatusActive, now, types.StatusPublished)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list expiring subscriptions")
	}
	return subs, nil
}
