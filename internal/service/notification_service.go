package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/events"
)

// Publisher is the slice of the Redis client used to fan out events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotificationService forwards membership events to a Redis channel.
type NotificationService struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// NewNotificationService creates the service. A nil publisher only logs.
func NewNotificationService(publisher Publisher, channel string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// Handle logs event and publishes it as JSON.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("classroom_id", event.ClassroomID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))

	if n.publisher == nil || n.channel == "" {
		return nil
	}

	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	if err := n.publisher.Publish(ctx, n.channel, message).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	n.logger.Debug("event published",
		zap.String("channel", n.channel),
		zap.String("event_id", event.ID))
	return nil
}
