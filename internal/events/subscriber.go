package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// HandlerFunc handles one raw lesson event payload. Returning an error nacks it.
type HandlerFunc func(ctx context.Context, eventType EventType, payload []byte) error

// Consume subscribes to topic and runs handle for every message until ctx is
// done. It returns once the subscription is established.
func Consume(ctx context.Context, sub message.Subscriber, topic string, logger *slog.Logger, handle HandlerFunc) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			eventType := EventType(msg.Metadata.Get("event_type"))
			if err := handle(msg.Context(), eventType, msg.Payload); err != nil {
				logger.Warn("Lesson event handler failed",
					"message_uuid", msg.UUID,
					"event_type", eventType,
					"error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}
