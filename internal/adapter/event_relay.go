package adapter

import (
	"ChatSyncAPI/internal/websocket"
	"context"
	"encoding/json"
	"fmt"
)

// EventRelay publishes realtime events to every instance and feeds the
// events it receives into the local bus.
type EventRelay interface {
	Publish(ctx context.Context, event websocket.Event) error
	Run(ctx context.Context) error
}

// LocalEventPublisher delivers straight into the in-process bus. It is used
// when a single instance serves every client.
type LocalEventPublisher struct {
	bus *websocket.Bus
}

func NewLocalEventPublisher(bus *websocket.Bus) *LocalEventPublisher {
	return &LocalEventPublisher{
		bus: bus,
	}
}

func (p *LocalEventPublisher) Publish(ctx context.Context, event websocket.Event) error {
	p.bus.Publish(event)
	return nil
}

func (p *LocalEventPublisher) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func encodeEvent(event websocket.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	return data, nil
}

func decodeEvent(data []byte) (websocket.Event, error) {
	var event websocket.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" {
		return event, fmt.Errorf("decode event: missing type")
	}
	return event, nil
}
