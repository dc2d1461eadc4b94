package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithPrefix(t *testing.T) {
	id := GenerateUUIDWithPrefix(UUID_PREFIX_INVOICE)
	assert.True(t, strings.HasPrefix(id, "inv_"))
	assert.Len(t, id, len("inv_")+26) // ULIDs are 26 characters

	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}

func TestGenerateUUIDWithEmptyPrefix(t *testing.T) {
	id := GenerateUUIDWithPrefix("")
	assert.NotContains(t, id, "_")
	assert.Len(t, id, 26)
}

func TestReferenceNumberFormats(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	inv := GenerateInvoiceNumber(now)
	assert.Regexp(t, `^INV-202603-[0-9A-F]{8}$`, inv)

	pay := GeneratePaymentNumber(now)
	assert.Regexp(t, `^PAY-20260315-[0-9A-F]{8}$`, pay)

	txn := GenerateTransactionNumber(now)
	assert.Regexp(t, `^TXN-20260315-[0-9A-F]{8}$`, txn)
}

func TestReferenceNumbersUseUTC(t *testing.T) {
	// 23:30 in UTC+10 is 13:30 UTC the same day; the number must carry
	// the UTC date.
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2026, 3, 15, 23, 30, 0, 0, loc)

	pay := GeneratePaymentNumber(now)
	assert.Contains(t, pay, "PAY-20260315-")
}
