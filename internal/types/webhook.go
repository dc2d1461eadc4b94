package types

import (
	"encoding/json"
	"time"
)

// Webhook event names published by the billing core. Delivery is
// fire-and-forget; a failed publish never rolls back the state change that
// produced it.
const (
	WebhookEventInvoiceCreated        = "invoice.created"
	WebhookEventInvoiceOverdue        = "invoice.overdue"
	WebhookEventPaymentCompleted      = "payment.completed"
	WebhookEventPaymentFailed         = "payment.failed"
	WebhookEventPaymentRefunded       = "payment.refunded"
	WebhookEventSubscriptionActivated = "subscription.activated"
	WebhookEventSubscriptionCancelled = "subscription.cancelled"
	WebhookEventSubscriptionExpired   = "subscription.expired"
)

// WebhookEvent represents a webhook event to be delivered to the notifier
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
