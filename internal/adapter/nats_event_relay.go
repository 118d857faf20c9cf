package adapter

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/websocket"
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

type NatsEventRelay struct {
	conn    *nats.Conn
	subject string
	bus     *websocket.Bus
}

func NewNatsEventRelay(ctx context.Context, cfg *config.AppConfig, bus *websocket.Bus) (*NatsEventRelay, error) {
	connect := func(ctx context.Context) (*nats.Conn, bool, error) {
		nc, err := nats.Connect(cfg.NatsURL,
			nats.Name("chatsync"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(500*time.Millisecond),
			nats.Timeout(3*time.Second),
		)
		return nc, err != nil, err
	}

	conn, err := helper.RetryWithBackoff(ctx, connect, 3, 500*time.Millisecond)
	if err != nil {
		slog.Error("Failed to connect to NATS", "error", err, "url", cfg.NatsURL)
		return nil, err
	}
	slog.Info("Connected to NATS", "url", cfg.NatsURL)

	return &NatsEventRelay{
		conn:    conn,
		subject: cfg.RealtimeChannel,
		bus:     bus,
	}, nil
}

func (r *NatsEventRelay) Publish(ctx context.Context, event websocket.Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.subject, data)
}

func (r *NatsEventRelay) Run(ctx context.Context) error {
	sub, err := r.conn.Subscribe(r.subject, func(m *nats.Msg) {
		event, err := decodeEvent(m.Data)
		if err != nil {
			slog.Warn("Dropping realtime message", "error", err, "subject", m.Subject)
			return
		}
		r.bus.Publish(event)
	})
	if err != nil {
		return err
	}
	slog.Info("Realtime relay subscribed", "driver", "nats", "subject", r.subject)

	<-ctx.Done()
	return sub.Drain()
}

func (r *NatsEventRelay) Ping(ctx context.Context) error {
	if !r.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return r.conn.FlushWithContext(ctx)
}

func (r *NatsEventRelay) Close() error {
	return r.conn.Drain()
}
