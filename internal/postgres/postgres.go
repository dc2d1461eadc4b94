package postgres

import (
	"context"
	"database/sql"

	"github.com/feebridge/feebridge/internal/config"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExec(query string, arg interface{}) (sql.Result, error)
	NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
}

// IClient is the database surface the service layer depends on. *DB is
// the production implementation; tests substitute a stub whose WithTx
// just runs the function.
type IClient interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Querier(ctx context.Context) Querier
}

// NewClient exposes the DB through the service-facing interface
func NewClient(db *DB) IClient {
	return db
}

// NewDB creates a new DB instance
func NewDB(config *config.Configuration, logger *logger.Logger) (*DB, error) {
	dsn := config.Postgres.GetDSN()
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// Querier returns the transaction bound to the context when one is
// active, the base connection otherwise.
func (db *DB) Querier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return db.DB
}

// NamedQueryContext is a context-aware wrapper over sqlx.NamedQuery that
// respects an active transaction.
func (db *DB) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	if tx, ok := GetTx(ctx); ok {
		return tx.NamedQuery(query, arg)
	}
	return db.DB.NamedQueryContext(ctx, query, arg)
}

// NamedExecContext executes a named statement, respecting an active
// transaction.
func (db *DB) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	if tx, ok := GetTx(ctx); ok {
		return tx.NamedExec(query, arg)
	}
	return db.DB.NamedExecContext(ctx, query, arg)
}
