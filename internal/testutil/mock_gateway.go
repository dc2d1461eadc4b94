package testutil

import (
	"context"
	"sync"

	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/gateway"
	"github.com/feebridge/feebridge/internal/types"
)

var _ gateway.PaymentGateway = (*MockPaymentGateway)(nil)

// MockPaymentGateway is a scriptable gateway for tests. By default every
// charge succeeds; tests flip DeclineNext or Hang to exercise the
// decline and timeout paths.
type MockPaymentGateway struct {
	mu sync.Mutex

	// DeclineNext makes the next charge come back as a definitive decline
	DeclineNext bool
	// Hang makes charges block until the context is done
	Hang bool

	charges []*gateway.ChargeRequest
}

// NewMockPaymentGateway creates a new mock payment gateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (g *MockPaymentGateway) Charge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	g.mu.Lock()
	g.charges = append(g.charges, req)
	declineNext := g.DeclineNext
	g.DeclineNext = false
	hang := g.Hang
	g.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ierr.WithError(ctx.Err()).
			WithHint("Payment gateway timed out").
			Mark(ierr.ErrGateway)
	}

	if declineNext {
		return nil, ierr.NewError("charge declined").
			WithHint("The payment was declined by the processor").
			WithReportableDetails(map[string]any{"payment_id": req.PaymentID}).
			Mark(ierr.ErrInvalidOperation)
	}

	return &gateway.ChargeResult{
		GatewayTxnID: "gw_" + req.PaymentID,
		RawResponse:  types.Metadata{"result": "approved"},
	}, nil
}

// Charges returns every charge request seen so far
func (g *MockPaymentGateway) Charges() []*gateway.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.ChargeRequest(nil), g.charges...)
}
