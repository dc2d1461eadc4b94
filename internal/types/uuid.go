package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_PLAN              = "plan"
	UUID_PREFIX_FEE               = "fee"
	UUID_PREFIX_SUBSCRIPTION      = "subs"
	UUID_PREFIX_INVOICE           = "inv"
	UUID_PREFIX_INVOICE_LINE_ITEM = "inv_line"
	UUID_PREFIX_PAYMENT           = "pay"
	UUID_PREFIX_TRANSACTION       = "txn"
	UUID_PREFIX_BILLING_SETTINGS  = "bset"
	UUID_PREFIX_WEBHOOK_EVENT     = "wh"
)

// randomHexSuffix returns n bytes of cryptographic randomness encoded as
// uppercase hexadecimal, 2n characters long.
func randomHexSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic("failed to read random bytes: " + err.Error())
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// GenerateInvoiceNumber returns a human-legible invoice number in the
// format INV-YYYYMM-XXXXXXXX where X is uppercase hexadecimal. Callers must
// collision-check against storage and retry on conflict.
func GenerateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("200601"), randomHexSuffix(4))
}

// GeneratePaymentNumber returns a payment reference in the format
// PAY-YYYYMMDD-XXXXXXXX.
func GeneratePaymentNumber(now time.Time) string {
	return fmt.Sprintf("PAY-%s-%s", now.UTC().Format("20060102"), randomHexSuffix(4))
}

// GenerateTransactionNumber returns a ledger transaction reference in the
// format TXN-YYYYMMDD-XXXXXXXX.
func GenerateTransactionNumber(now time.Time) string {
	return fmt.Sprintf("TXN-%s-%s", now.UTC().Format("20060102"), randomHexSuffix(4))
}
