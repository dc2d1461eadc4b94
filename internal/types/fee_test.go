package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecurringFrequencyPeriodKey(t *testing.T) {
	testCases := []struct {
		name      string
		frequency RecurringFrequency
		now       time.Time
		expected  string
	}{
		{
			name:      "monthly_mid_month",
			frequency: RecurringFrequencyMonthly,
			now:       time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
			expected:  "2026-03",
		},
		{
			name:      "monthly_first_instant",
			frequency: RecurringFrequencyMonthly,
			now:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			expected:  "2026-03",
		},
		{
			name:      "quarterly_first_quarter",
			frequency: RecurringFrequencyQuarterly,
			now:       time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
			expected:  "2026-Q1",
		},
		{
			name:      "quarterly_last_quarter",
			frequency: RecurringFrequencyQuarterly,
			now:       time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
			expected:  "2026-Q4",
		},
		{
			name:      "yearly",
			frequency: RecurringFrequencyYearly,
			now:       time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			expected:  "2026",
		},
		{
			name:      "non_utc_instant_normalized",
			frequency: RecurringFrequencyMonthly,
			now:       time.Date(2026, 3, 31, 23, 30, 0, 0, time.FixedZone("UTC+10", 10*3600)),
			expected:  "2026-03",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.frequency.PeriodKey(tc.now))
		})
	}
}

func TestPeriodKeyStableWithinPeriod(t *testing.T) {
	first := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)
	next := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t,
		RecurringFrequencyMonthly.PeriodKey(first),
		RecurringFrequencyMonthly.PeriodKey(last))
	assert.NotEqual(t,
		RecurringFrequencyMonthly.PeriodKey(last),
		RecurringFrequencyMonthly.PeriodKey(next))
}

func TestRecurringFrequencyValidate(t *testing.T) {
	assert.NoError(t, RecurringFrequencyMonthly.Validate())
	assert.NoError(t, RecurringFrequencyQuarterly.Validate())
	assert.NoError(t, RecurringFrequencyYearly.Validate())
	assert.Error(t, RecurringFrequency("WEEKLY").Validate())
	assert.Error(t, RecurringFrequency("").Validate())
}
