package gateway

import (
	"context"

	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
)

// ChargeRequest is the input to a gateway charge call
type ChargeRequest struct {
	PaymentID string
	Amount    decimal.Decimal
	Currency  string
	Method    types.PaymentMethod
	Metadata  types.Metadata
}

// ChargeResult is the outcome of a successful gateway charge
type ChargeResult struct {
	GatewayTxnID string
	RawResponse  types.Metadata
}

// PaymentGateway is the opaque external payment processor boundary.
// Implementations must honor context cancellation: a timed-out call
// returns ctx.Err() and the caller leaves the payment in processing.
type PaymentGateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}
