package adapter

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/websocket"
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisEventRelay struct {
	redis   *RedisAdapter
	channel string
	bus     *websocket.Bus

	subscribeRetries int
	subscribeDelay   time.Duration
}

func NewRedisEventRelay(redis *RedisAdapter, cfg *config.AppConfig, bus *websocket.Bus) *RedisEventRelay {
	return &RedisEventRelay{
		redis:            redis,
		channel:          cfg.RealtimeChannel,
		bus:              bus,
		subscribeRetries: 5,
		subscribeDelay:   500 * time.Millisecond,
	}
}

func (r *RedisEventRelay) Publish(ctx context.Context, event websocket.Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	return r.redis.Publish(ctx, r.channel, data)
}

// Run blocks until ctx is done, forwarding every message on the channel to
// the bus. Malformed messages are logged and skipped. The initial subscribe
// is retried; once it is confirmed go-redis reconnects on its own.
func (r *RedisEventRelay) Run(ctx context.Context) error {
	subscribe := func(ctx context.Context) (*redis.PubSub, bool, error) {
		pubsub := r.redis.Subscribe(ctx, r.channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			return nil, ctx.Err() == nil, err
		}
		return pubsub, false, nil
	}

	pubsub, err := helper.RetryWithBackoff(ctx, subscribe, r.subscribeRetries, r.subscribeDelay)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	slog.Info("Realtime relay subscribed", "driver", "redis", "channel", r.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				slog.Warn("Dropping realtime message", "error", err, "channel", msg.Channel)
				continue
			}
			r.bus.Publish(event)
		}
	}
}
