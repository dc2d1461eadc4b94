package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/feebridge/feebridge/internal/types"
)

// publishWebhook emits a domain event to the notifier boundary. Delivery
// is fire-and-forget: a failed publish is logged, never propagated, so
// notification problems cannot roll back billing state.
func (p ServiceParams) publishWebhook(ctx context.Context, eventName string, payload any, now time.Time) {
	if p.WebhookPublisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.Logger.Errorw("failed to marshal webhook payload",
			"error", err,
			"event_name", eventName)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		UserID:    types.GetUserID(ctx),
		Timestamp: now,
		Payload:   data,
	}

	if err := p.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish webhook event",
			"error", err,
			"event_name", eventName,
			"event_id", event.ID)
	}
}
