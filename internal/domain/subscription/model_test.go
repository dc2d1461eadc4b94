package subscription

import (
	"testing"
	"time"

	"github.com/feebridge/feebridge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestIsActive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	sub := &Subscription{
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusActive,
		StartDate:          start,
		EndDate:            end,
	}

	assert.True(t, sub.IsActive(start.AddDate(0, 6, 0)))
	assert.True(t, sub.IsActive(end))
	assert.False(t, sub.IsActive(end.Add(time.Second)))

	sub.SubscriptionStatus = types.SubscriptionStatusSuspended
	assert.False(t, sub.IsActive(start.AddDate(0, 6, 0)))
}

func TestDaysRemaining(t *testing.T) {
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	sub := &Subscription{
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusActive,
		StartDate:          end.AddDate(-1, 0, 0),
		EndDate:            end,
	}

	assert.Equal(t, 30, sub.DaysRemaining(end.AddDate(0, 0, -30)))
	assert.Equal(t, 0, sub.DaysRemaining(end))

	expired := *sub
	expired.SubscriptionStatus = types.SubscriptionStatusExpired
	assert.Equal(t, 0, expired.DaysRemaining(end.AddDate(0, 0, -30)))
}

func TestSubscriptionValidate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := &Subscription{
		PlanID:             "plan_test",
		SubscriptionStatus: types.SubscriptionStatusPending,
		StartDate:          start,
		EndDate:            start.AddDate(1, 0, 0),
	}
	assert.NoError(t, valid.Validate())

	noPlan := *valid
	noPlan.PlanID = ""
	assert.Error(t, noPlan.Validate())

	endBeforeStart := *valid
	endBeforeStart.EndDate = start.AddDate(0, 0, -1)
	assert.Error(t, endBeforeStart.Validate())
}
