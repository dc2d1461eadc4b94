package gateway

import (
	"context"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/types"
)

// SimulatedGateway approves every charge. Used in local deployments and
// tests; production wires a real gateway adapter behind the same
// interface.
type SimulatedGateway struct {
	logger *logger.Logger
}

func NewSimulatedGateway(logger *logger.Logger) PaymentGateway {
	return &SimulatedGateway{logger: logger}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	select {
	case <-ctx.Done():
		return nil, ierr.WithError(ctx.Err()).
			WithHint("Gateway call timed out").
			Mark(ierr.ErrGateway)
	default:
	}

	if req.Amount.IsZero() || req.Amount.IsNegative() {
		return nil, ierr.NewError("gateway rejected charge").
			WithHint("Charge amount must be positive").
			Mark(ierr.ErrGateway)
	}

	g.logger.Debugw("simulated gateway charge approved",
		"payment_id", req.PaymentID,
		"amount", req.Amount.String(),
		"method", req.Method,
	)

	return &ChargeResult{
		GatewayTxnID: types.GenerateUUIDWithPrefix("sim"),
		RawResponse: types.Metadata{
			"simulated": "true",
			"status":    "approved",
		},
	}, nil
}
