package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/feebridge/feebridge/internal/domain/invoice"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"tenant_id", inv.TenantID,
		"line_items", len(inv.LineItems))

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO invoices (
				id, tenant_id, invoice_number, student_id, subscription_id,
				idempotency_key, invoice_status, issue_date, due_date, paid_date,
				subtotal, tax_amount, discount_amount, total_amount, notes, version,
				status, created_at, updated_at, created_by, updated_by
			) VALUES (
				:id, :tenant_id, :invoice_number, :student_id, :subscription_id,
				:idempotency_key, :invoice_status, :issue_date, :due_date, :paid_date,
				:subtotal, :tax_amount, :discount_amount, :total_amount, :notes, :version,
				:status, :created_at, :updated_at, :created_by, :updated_by
			)`

		if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
			if isUniqueViolation(err) {
				return ierr.WithError(err).
					WithHint("An invoice with this number or idempotency key already exists").
					WithReportableDetails(map[string]any{
						"invoice_number": inv.InvoiceNumber,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
			return wrapDBError(err, "Failed to create invoice")
		}

		lineQuery := `
			INSERT INTO invoice_line_items (
				id, tenant_id, invoice_id, fee_id, description,
				quantity, unit_price, total_price,
				status, created_at, updated_at, created_by, updated_by
			) VALUES (
				:id, :tenant_id, :invoice_id, :fee_id, :description,
				:quantity, :unit_price, :total_price,
				:status, :created_at, :updated_at, :created_by, :updated_by
			)`

		for _, item := range inv.LineItems {
			item.InvoiceID = inv.ID
			if _, err := r.db.NamedExecContext(ctx, lineQuery, item); err != nil {
				return wrapDBError(err, "Failed to create invoice line item")
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := `
		SELECT * FROM invoices
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &inv, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("invoice not found").
				WithHintf("Invoice with ID %s was not found", id).
				WithReportableDetails(map[string]any{"invoice_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get invoice")
	}

	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := `
		SELECT * FROM invoices
		WHERE idempotency_key = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &inv, query, key, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("invoice not found").
				WithHint("No invoice exists for this idempotency key").
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get invoice by idempotency key")
	}

	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update writes the invoice back conditioned on the version it was read
// at. A zero row count with the row still present means a concurrent
// writer won, reported as ErrVersionConflict so callers can reload and
// retry.
func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("updating invoice",
		"invoice_id", inv.ID,
		"invoice_status", inv.InvoiceStatus,
		"version", inv.Version)

	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			due_date = :due_date,
			paid_date = :paid_date,
			subtotal = :subtotal,
			tax_amount = :tax_amount,
			discount_amount = :discount_amount,
			total_amount = :total_amount,
			notes = :notes,
			version = version + 1,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND version = :version`

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return wrapDBError(err, "Failed to update invoice")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBError(err, "Failed to update invoice")
	}
	if rows == 0 {
		exists, err := r.exists(ctx, inv.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ierr.NewError("invoice not found").
				WithHintf("Invoice with ID %s was not found", inv.ID).
				Mark(ierr.ErrNotFound)
		}
		return ierr.NewError("invoice version conflict").
			WithHint("The invoice was modified concurrently, reload and retry").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT * FROM invoices WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.SubscriptionID != nil {
			query += ` AND subscription_id = :subscription_id`
			args["subscription_id"] = *filter.SubscriptionID
		}
		if filter.StudentID != nil {
			query += ` AND student_id = :student_id`
			args["student_id"] = *filter.StudentID
		}
		if filter.InvoiceStatus != nil {
			query += ` AND invoice_status = :invoice_status`
			args["invoice_status"] = *filter.InvoiceStatus
		}
		if filter.TimeRangeFilter != nil {
			if filter.StartTime != nil {
				query += ` AND issue_date >= :start_time`
				args["start_time"] = *filter.StartTime
			}
			if filter.EndTime != nil {
				query += ` AND issue_date <= :end_time`
				args["end_time"] = *filter.EndTime
			}
		}
	}
	query += ` ORDER BY issue_date DESC, created_at DESC`
	if filter != nil && filter.GetLimit() > 0 {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list invoices")
	}
	defer rows.Close()

	invoices := make([]*invoice.Invoice, 0)
	for rows.Next() {
		var inv invoice.Invoice
		if err := rows.StructScan(&inv); err != nil {
			return nil, wrapDBError(err, "Failed to scan invoice")
		}
		invoices = append(invoices, &inv)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT COUNT(*) FROM invoices WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.SubscriptionID != nil {
			query += ` AND subscription_id = :subscription_id`
			args["subscription_id"] = *filter.SubscriptionID
		}
		if filter.StudentID != nil {
			query += ` AND student_id = :student_id`
			args["student_id"] = *filter.StudentID
		}
		if filter.InvoiceStatus != nil {
			query += ` AND invoice_status = :invoice_status`
			args["invoice_status"] = *filter.InvoiceStatus
		}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, wrapDBError(err, "Failed to count invoices")
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, wrapDBError(err, "Failed to count invoices")
		}
	}
	return count, rows.Err()
}

func (r *invoiceRepository) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices WHERE invoice_number = $1 AND tenant_id = $2
		)`

	err := r.db.Querier(ctx).GetContext(ctx, &exists, query, invoiceNumber, types.GetTenantID(ctx))
	if err != nil {
		return false, wrapDBError(err, "Failed to check invoice number")
	}
	return exists, nil
}

func (r *invoiceRepository) ListDue(ctx context.Context, now time.Time) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice
	query := `
		SELECT * FROM invoices
		WHERE invoice_status IN ($1, $2) AND due_date < $3 AND status = $4
		ORDER BY due_date ASC`

	err := r.db.Querier(ctx).SelectContext(ctx, &invoices, query,
		types.InvoiceStatusSent, types.InvoiceStatusPartiallyPaid, now, types.StatusPublished)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list due invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) loadLineItems(ctx context.Context, inv *invoice.Invoice) error {
	var items []*invoice.LineItem
	query := `
		SELECT * FROM invoice_line_items
		WHERE invoice_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC`

	err := r.db.Querier(ctx).SelectContext(ctx, &items, query, inv.ID, inv.TenantID)
	if err != nil {
		return wrapDBError(err, "Failed to load invoice line items")
	}
	inv.LineItems = items
	return nil
}

func (r *invoiceRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1 AND tenant_id = $2)`

	err := r.db.Querier(ctx).GetContext(ctx, &exists, query, id, types.GetTenantID(ctx))
	if err != nil {
		return false, wrapDBError(err, "Failed to check invoice existence")
	}
	return exists, nil
}
