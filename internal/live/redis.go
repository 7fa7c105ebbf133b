package live

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

// RedisRelay shares change notices between service instances. Notify
// publishes to a Redis channel; Run forwards everything received on that
// channel, including this instance's own notices, into the local hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *slog.Logger
}

// NewRedisRelay creates a relay over client.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Notify publishes topic to every instance.
func (r *RedisRelay) Notify(ctx context.Context, topic string) error {
	if err := r.client.Publish(ctx, r.channel, topic).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Run forwards notices until ctx ends. It returns an error only when the
// initial subscription cannot be established.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so notices published after
	// Run starts are not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("relaying change notices", "channel", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			_ = r.hub.Notify(ctx, msg.Payload)
		}
	}
}
