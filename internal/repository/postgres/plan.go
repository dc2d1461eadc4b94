package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feebridge/feebridge/internal/cache"
	"github.com/feebridge/feebridge/internal/domain/plan"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) plan.Repository {
	return &planRepository{
		db:     db,
		logger: logger,
		cache:  cache,
	}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	r.logger.Debugw("creating plan", "plan_id", p.ID, "tenant_id", p.TenantID)

	query := `
		INSERT INTO plans (
			id, tenant_id, name, description, plan_type, price, billing_cycle,
			max_students, max_teachers, storage_gb, active,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :name, :description, :plan_type, :price, :billing_cycle,
			:max_students, :max_teachers, :storage_gb, :active,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("A plan with the name %s already exists", p.Name).
				WithReportableDetails(map[string]any{"name": p.Name}).
				Mark(ierr.ErrAlreadyExists)
		}
		return wrapDBError(err, "Failed to create plan")
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	cacheKey := cache.GenerateKey(cache.PrefixPlan, types.GetTenantID(ctx), id)
	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	var p plan.Plan
	query := `
		SELECT * FROM plans
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with ID %s was not found", id).
				WithReportableDetails(map[string]any{"plan_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get plan")
	}

	r.cache.Set(ctx, cacheKey, &p, cache.DefaultExpiration)
	return &p, nil
}

func (r *planRepository) GetByName(ctx context.Context, name string) (*plan.Plan, error) {
	var p plan.Plan
	query := `
		SELECT * FROM plans
		WHERE name = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &p, query, name, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with name %s was not found", name).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get plan by name")
	}
	return &p, nil
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	r.logger.Debugw("updating plan", "plan_id", p.ID, "tenant_id", p.TenantID)

	query := `
		UPDATE plans SET
			name = :name,
			description = :description,
			plan_type = :plan_type,
			price = :price,
			billing_cycle = :billing_cycle,
			max_students = :max_students,
			max_teachers = :max_teachers,
			storage_gb = :storage_gb,
			active = :active,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return wrapDBError(err, "Failed to update plan")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError(err, "Failed to update plan")
	}
	if rows == 0 {
		return ierr.NewError("plan not found").
			WithHintf("Plan with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}

	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixPlan, p.TenantID, p.ID))
	return nil
}

func (r *planRepository) List(ctx context.Context, filter *types.PlanFilter) ([]*plan.Plan, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT * FROM plans WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.PlanType != nil {
			query += ` AND plan_type = :plan_type`
			args["plan_type"] = *filter.PlanType
		}
		if filter.Cycle != nil {
			query += ` AND billing_cycle = :billing_cycle`
			args["billing_cycle"] = *filter.Cycle
		}
		if filter.ActiveOnly {
			query += ` AND active = true`
		}
	}
	query += ` ORDER BY price ASC`
	if filter != nil && filter.GetLimit() > 0 {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list plans")
	}
	defer rows.Close()

	plans := make([]*plan.Plan, 0)
	for rows.Next() {
		var p plan.Plan
		if err := rows.StructScan(&p); err != nil {
			return nil, wrapDBError(err, "Failed to scan plan")
		}
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}

func (r *planRepository) Count(ctx context.Context, filter *types.PlanFilter) (int, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT COUNT(*) FROM plans WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.PlanType != nil {
			query += ` AND plan_type = :plan_type`
			args["plan_type"] = *filter.PlanType
		}
		if filter.Cycle != nil {
			query += ` AND billing_cycle = :billing_cycle`
			args["billing_cycle"] = *filter.Cycle
		}
		if filter.ActiveOnly {
			query += ` AND active = true`
		}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, wrapDBError(err, "Failed to count plans")
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, wrapDBError(err, "Failed to count plans")
		}
	}
	return count, rows.Err()
}
