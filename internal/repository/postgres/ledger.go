package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feebridge/feebridge/internal/domain/ledger"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/postgres"
	"github.com/feebridge/feebridge/internal/types"
)

type ledgerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{db: db, logger: logger}
}

func (r *ledgerRepository) Create(ctx context.Context, t *ledger.Transaction) error {
	r.logger.Debugw("appending ledger transaction",
		"transaction_id", t.ID,
		"transaction_type", t.TransactionType,
		"tenant_id", t.TenantID)

	query := `
		INSERT INTO ledger_transactions (
			id, tenant_id, transaction_number, transaction_type, amount,
			description, reference, payment_id, invoice_id, transaction_date,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :transaction_number, :transaction_type, :amount,
			:description, :reference, :payment_id, :invoice_id, :transaction_date,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A transaction already exists for this payment").
				WithReportableDetails(map[string]any{
					"transaction_number": t.TransactionNumber,
					"payment_id":         t.PaymentID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return wrapDBError(err, "Failed to append ledger transaction")
	}
	return nil
}

func (r *ledgerRepository) Get(ctx context.Context, id string) (*ledger.Transaction, error) {
	var t ledger.Transaction
	query := `
		SELECT * FROM ledger_transactions
		WHERE id = $1 AND tenant_id = $2 AND status = $3`

	err := r.db.Querier(ctx).GetContext(ctx, &t, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("transaction not found").
				WithHintf("Transaction with ID %s was not found", id).
				WithReportableDetails(map[string]any{"transaction_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, wrapDBError(err, "Failed to get transaction")
	}
	return &t, nil
}

func (r *ledgerRepository) List(ctx context.Context, filter *types.TransactionFilter) ([]*ledger.Transaction, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT * FROM ledger_transactions WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.TransactionType != nil {
			query += ` AND transaction_type = :transaction_type`
			args["transaction_type"] = *filter.TransactionType
		}
		if filter.PaymentID != nil {
			query += ` AND payment_id = :payment_id`
			args["payment_id"] = *filter.PaymentID
		}
		if filter.InvoiceID != nil {
			query += ` AND invoice_id = :invoice_id`
			args["invoice_id"] = *filter.InvoiceID
		}
		if filter.TimeRangeFilter != nil {
			if filter.StartTime != nil {
				query += ` AND transaction_date >= :start_time`
				args["start_time"] = *filter.StartTime
			}
			if filter.EndTime != nil {
				query += ` AND transaction_date <= :end_time`
				args["end_time"] = *filter.EndTime
			}
		}
	}
	query += ` ORDER BY transaction_date DESC, created_at DESC`
	if filter != nil && filter.GetLimit() > 0 {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list transactions")
	}
	defer rows.Close()

	transactions := make([]*ledger.Transaction, 0)
	for rows.Next() {
		var t ledger.Transaction
		if err := rows.StructScan(&t); err != nil {
			return nil, wrapDBError(err, "Failed to scan transaction")
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

func (r *ledgerRepository) Count(ctx context.Context, filter *types.TransactionFilter) (int, error) {
	args := map[string]any{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}

	query := `SELECT COUNT(*) FROM ledger_transactions WHERE tenant_id = :tenant_id AND status = :status`
	if filter != nil {
		if filter.TransactionType != nil {
			query += ` AND transaction_type = :transaction_type`
			args["transaction_type"] = *filter.TransactionType
		}
		if filter.PaymentID != nil {
			query += ` AND payment_id = :payment_id`
			args["payment_id"] = *filter.PaymentID
		}
		if filter.InvoiceID != nil {
			query += ` AND invoice_id = :invoice_id`
			args["invoice_id"] = *filter.InvoiceID
		}
	}

	rows, err := r.db.NamedQueryContext(ctx, query, args)
	if err != nil {
		return 0, wrapDBError(err, "Failed to count transactions")
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, wrapDBError(err, "Failed to count transactions")
		}
	}
	return count, rows.Err()
}

func (r *ledgerRepository) ListByPayment(ctx context.Context, paymentID string) ([]*ledger.Transaction, error) {
	var transactions []*ledger.Transaction
	query := `
		SELECT * FROM ledger_transactions
		WHERE payment_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY transaction_date ASC`

	err := r.db.Querier(ctx).SelectContext(ctx, &transactions, query,
		paymentID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, wrapDBError(err, "Failed to list transactions for payment")
	}
	return transactions, nil
}
