package plan

import (
	"testing"

	"github.com/feebridge/feebridge/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestYearlyEquivalent(t *testing.T) {
	testCases := []struct {
		name     string
		price    decimal.Decimal
		cycle    types.BillingCycle
		expected string
	}{
		{
			name:     "monthly",
			price:    decimal.NewFromInt(100),
			cycle:    types.BillingCycleMonthly,
			expected: "1200",
		},
		{
			name:     "quarterly",
			price:    decimal.NewFromInt(250),
			cycle:    types.BillingCycleQuarterly,
			expected: "1000",
		},
		{
			name:     "yearly",
			price:    decimal.NewFromInt(999),
			cycle:    types.BillingCycleYearly,
			expected: "999",
		},
		{
			name:     "fractional_price",
			price:    decimal.RequireFromString("19.99"),
			cycle:    types.BillingCycleMonthly,
			expected: "239.88",
		},
		{
			name:     "zero_price",
			price:    decimal.Zero,
			cycle:    types.BillingCycleMonthly,
			expected: "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Plan{Price: tc.price, BillingCycle: tc.cycle}
			assert.Equal(t, tc.expected, p.YearlyEquivalent().String())
		})
	}
}

func TestPlanValidate(t *testing.T) {
	valid := &Plan{
		Name:         "Standard",
		PlanType:     types.PlanTypeStandard,
		Price:        decimal.NewFromInt(100),
		BillingCycle: types.BillingCycleMonthly,
	}
	assert.NoError(t, valid.Validate())

	noName := *valid
	noName.Name = ""
	assert.Error(t, noName.Validate())

	badType := *valid
	badType.PlanType = "GOLD"
	assert.Error(t, badType.Validate())

	negativePrice := *valid
	negativePrice.Price = decimal.NewFromInt(-1)
	assert.Error(t, negativePrice.Validate())
}
