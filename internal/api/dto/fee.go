package dto

import (
	"context"

	"github.com/feebridge/feebridge/internal/domain/fee"
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/feebridge/feebridge/internal/types"
	"github.com/feebridge/feebridge/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateFeeRequest struct {
	Name               string                   `json:"name" validate:"required,max=255"`
	Description        string                   `json:"description" validate:"max=1024"`
	FeeType            types.FeeType            `json:"fee_type" validate:"required"`
	Amount             decimal.Decimal          `json:"amount" validate:"required"`
	IsRecurring        bool                     `json:"is_recurring"`
	RecurringFrequency types.RecurringFrequency `json:"recurring_frequency,omitempty"`
}

func (r *CreateFeeRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.FeeType.Validate(); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("amount must not be negative").
			WithHint("Please provide a non-negative amount").
			WithReportableDetails(map[string]any{"amount": r.Amount}).
			Mark(ierr.ErrValidation)
	}
	if r.IsRecurring {
		if r.RecurringFrequency == "" {
			return ierr.NewError("recurring_frequency is required for recurring fees").
				WithHint("Please provide a recurring frequency (MONTHLY, QUARTERLY or YEARLY)").
				Mark(ierr.ErrValidation)
		}
		if err := r.RecurringFrequency.Validate(); err != nil {
			return err
		}
	} else if r.RecurringFrequency != "" {
		return ierr.NewError("recurring_frequency is only valid for recurring fees").
			WithHint("Omit the recurring frequency for one-off fees").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateFeeRequest) ToFee(ctx context.Context) *fee.Fee {
	return &fee.Fee{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FEE),
		Name:               r.Name,
		Description:        r.Description,
		FeeType:            r.FeeType,
		Amount:             r.Amount,
		IsRecurring:        r.IsRecurring,
		RecurringFrequency: r.RecurringFrequency,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
}

type FeeResponse struct {
	*fee.Fee
}

func NewFeeResponse(f *fee.Fee) *FeeResponse {
	return &FeeResponse{Fee: f}
}

// ListFeesResponse represents a paginated list of fees
type ListFeesResponse = types.ListResponse[*FeeResponse]
