package webhook

import (
	"context"
	"encoding/json"

	"github.com/feebridge/feebridge/internal/config"
	"github.com/feebridge/feebridge/internal/logger"
	"github.com/feebridge/feebridge/internal/pubsub"
	"github.com/feebridge/feebridge/internal/types"
)

// Consumer drains the webhook topic and hands each event to downstream
// delivery. Delivery failures are logged and never retried back into the
// billing flow.
type Consumer struct {
	pubSub pubsub.PubSub
	config *config.WebhookConfig
	logger *logger.Logger
}

func NewConsumer(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) *Consumer {
	return &Consumer{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}
}

// Start subscribes to the webhook topic and consumes until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, c.config.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.handle(msg.Context(), msg.Payload)
			msg.Ack()
		}
		c.logger.Info("webhook consumer stopped")
	}()

	return nil
}

func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var event types.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Errorw("failed to decode webhook event", "error", err)
		return
	}

	c.logger.Infow("delivering webhook event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"tenant_id", event.TenantID,
	)
}
