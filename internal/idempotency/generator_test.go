package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyDeterministic(t *testing.T) {
	g := NewGenerator()

	params := map[string]interface{}{
		"tenant_id": "tenant-1",
		"fee_id":    "fee_abc",
		"period":    "2026-03",
	}

	first := g.GenerateKey(ScopeRecurringFeeInvoice, params)
	second := g.GenerateKey(ScopeRecurringFeeInvoice, params)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, string(ScopeRecurringFeeInvoice)+"-"))
}

func TestGenerateKeyOrderIndependent(t *testing.T) {
	g := NewGenerator()

	// map iteration order must not leak into the key
	a := g.GenerateKey(ScopeOneOffInvoice, map[string]interface{}{
		"student_id": "stu-1",
		"due_date":   "2026-04-01",
		"fee_ids":    "fee_a,fee_b",
	})
	b := g.GenerateKey(ScopeOneOffInvoice, map[string]interface{}{
		"fee_ids":    "fee_a,fee_b",
		"due_date":   "2026-04-01",
		"student_id": "stu-1",
	})
	assert.Equal(t, a, b)
}

func TestGenerateKeyDiscriminates(t *testing.T) {
	g := NewGenerator()

	base := map[string]interface{}{
		"tenant_id": "tenant-1",
		"fee_id":    "fee_abc",
		"period":    "2026-03",
	}
	nextPeriod := map[string]interface{}{
		"tenant_id": "tenant-1",
		"fee_id":    "fee_abc",
		"period":    "2026-04",
	}

	assert.NotEqual(t,
		g.GenerateKey(ScopeRecurringFeeInvoice, base),
		g.GenerateKey(ScopeRecurringFeeInvoice, nextPeriod))
	assert.NotEqual(t,
		g.GenerateKey(ScopeRecurringFeeInvoice, base),
		g.GenerateKey(ScopeOneOffInvoice, base))
}
