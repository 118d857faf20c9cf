package adapter

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter retries the initial ping a few times so the API can start
// alongside a Redis container that is still booting.
func NewRedisAdapter(ctx context.Context, cfg *config.AppConfig) (*RedisAdapter, error) {
	addr := net.JoinHostPort(cfg.RedisHost, cfg.RedisPort)
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		ClientName: "chatsync",
	})

	ping := func(ctx context.Context) (struct{}, bool, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		return struct{}{}, err != nil, err
	}

	if _, err := helper.RetryWithBackoff(ctx, ping, 3, 250*time.Millisecond); err != nil {
		slog.Error("Failed to connect to Redis", "error", err, "addr", addr)
		client.Close()
		return nil, err
	}

	slog.Info("Connected to Redis", "addr", addr, "db", cfg.RedisDB)

	return &RedisAdapter{
		client: client,
	}, nil
}

func NewRedisAdapterFromClient(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{
		client: client,
	}
}

func (r *RedisAdapter) Publish(ctx context.Context, channel string, payload []byte) error {
	return r.client.Publish(ctx, channel, payload).Err()
}

func (r *RedisAdapter) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return r.client.Subscribe(ctx, channel)
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisAdapter) Close() error {
	return r.client.Close()
}

func (r *RedisAdapter) Client() *redis.Client {
	return r.client
}
