package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feebridge/feebridge/internal/domain/payment"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	r.logger.Debugw("creating payment",
		"payment_id", p.ID,
		"payment_number", p.PaymentNumber,
		"invoice_id", p.InvoiceID,
		"tenant_id", p.TenantID)

	query := `
		INSERT INTO payments (
			id, tenant_id, payment_number, invoice_id, amount,
			payment_method, payment_status, gateway_txn_id, gateway_response,
			paid_by, processed_by, payment_date, processed_date,
			failure_reason, notes, version,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :payment_number, :invoice_id, :amount,
			:payment_method, :payment_status, :gateway_txn_id, :gateway_response,
			:paid_by, :processed_by, :payment_date, :processed_date,
			:failure_reason, :notes, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("A payment with the number %s already exists", p.PaymentNumber).
				WithReportableDetails(map[string]any{"payment_number": p.PaymentNumber}).
				Mark(ierr.ErrAlreadyExists)
		}
		return wrapDBError(err, "Failed to create payment")
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var p payment.Payment
	query := `
		SELECT * FROM payments
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment not found").
				WithHintf("Payment with ID %s was not found", id).
				WithReportableDetails(map[string]any{"payment_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get payment")
	}
	return &p, nil
}

// Update is compare-and-swap on the payment version. Concurrent writers
// racing on the same payment see ErrVersionConflict: exactly one of them
// wins each transition.
func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	r.logger.Debugw("updating payment",
		"payment_id", p.ID,
		"payment_status", p.PaymentStatus,
		"version", p.Version)

	query := `
		UPDATE payments SET
			payment_status = :payment_status,
			gateway_txn_id = :gateway_txn_id,
			gateway_response = :gateway_response,
			processed_by = :processed_by,
			processed_date = :processed_date,
			failure_reason = :failure_reason,
			notes = :notes,
			version = version + 1,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version`

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return wrapDBError(err, "Failed to update payment")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError(err, "Failed to update payment")
	}
	if rows == 0 {
		exists, err := r.exists(ctx, p.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ierr.NewError("payment not found").
				WithHintf("Payment with ID %s was not found", p.ID).
				Mark(ierr.ErrNotFound)
		}
		return ierr.NewError("payment version conflict").
			WithHint("The payment was modified concurrently, reload and retry").
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"version":    p.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	p.Version++
	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT * FROM payments WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.InvoiceID != nil {
			query += ` AND invoice_id = :invoice_id`
			args["invoice_id"] = *filter.InvoiceID
		}
		if filter.PaymentMethod != nil {
			query += ` AND payment_method = :payment_method`
			args["payment_method"] = *filter.PaymentMethod
		}
		if filter.PaymentStatus != nil {
			query += ` AND payment_status = :payment_status`
			args["payment_status"] = *filter.PaymentStatus
		}
		if filter.TimeRangeFilter != nil {
			if filter.StartTime != nil {
				query += ` AND payment_date >= :start_time`
				args["start_time"] = *filter.StartTime
			}
			if filter.EndTime != nil {
				query += ` AND payment_date <= :end_time`
				args["end_time"] = *filter.EndTime
			}
		}
	}
	query += ` ORDER BY payment_date DESC, created_at DESC`
	if filter != nil && filter.GetLimit() > 0 {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list payments")
	}
	defer rows.Close()

	payments := make([]*payment.Payment, 0)
	for rows.Next() {
		var p payment.Payment
		if err := rows.StructScan(&p); err != nil {
			return nil, wrapDBError(err, "Failed to scan payment")
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT COUNT(*) FROM payments WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.InvoiceID != nil {
			query += ` AND invoice_id = :invoice_id`
			args["invoice_id"] = *filter.InvoiceID
		}
		if filter.PaymentMethod != nil {
			query += ` AND payment_method = :payment_method`
			args["payment_method"] = *filter.PaymentMethod
		}
		if filter.PaymentStatus != nil {
			query += ` AND payment_status = :payment_status`
			args["payment_status"] = *filter.PaymentStatus
		}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, wrapDBError(err, "Failed to count payments")
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, wrapDBError(err, "Failed to count payments")
		}
	}
	return count, rows.Err()
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	query := `
		SELECT * FROM payments
		WHERE invoice_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY payment_date ASC`

	err := r.db.Querier(ctx).SelectContext(ctx, &payments, query,
		invoiceID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list payments for invoice")
	}
	return payments, nil
}

func (r *paymentRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1 AND tenant_id = $2)`

	err := r.db.Querier(ctx).GetContext(ctx, &exists, query, id, types.GetTenantID(ctx))
	if err != nil {
		return false, wrapDBError(err, "Failed to check payment existence")
	}
	return exists, nil
}
