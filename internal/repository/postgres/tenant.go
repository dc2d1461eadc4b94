package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feebridge/feebridge/internal/domain/tenant"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
)

type tenantRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewTenantRepository(db *postgres.DB, logger *logger.Logger) tenant.Repository {
	return &tenantRepository{db: db, logger: logger}
}

func (r *tenantRepository) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	query := `SELECT * FROM tenants WHERE id = $1`

	err := r.db.Querier(ctx).GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("tenant not found").
				WithHintf("Tenant with ID %s was not found", id).
				WithReportableDetails(map[string]any{"tenant_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get tenant")
	}
	return &t, nil
}

func (r *tenantRepository) ListActive(ctx context.Context) ([]*tenant.Tenant, error) {
	var tenants []*tenant.Tenant
	query := `SELECT * FROM tenants WHERE active = true ORDER BY created_at ASC`

	err := r.db.Querier(ctx).SelectContext(ctx, &tenants, query)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list active tenants")
	}
	return tenants, nil
}
