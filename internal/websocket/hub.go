package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub tracks the live sessions of every connected user and forwards chat
// activity from the bus to the sessions of the addressed user.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	Register    chan *Client
	Unregister  chan *Client

	bus      *Bus
	listener *Listener
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

func NewHub(bus *Bus) *Hub {
	h := &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		bus:         bus,
		done:        make(chan struct{}),
	}
	h.listener = NewListener(h.forward)
	return h
}

func (h *Hub) Run() {
	if h.bus != nil {
		for _, t := range forwardedEvents() {
			h.bus.Subscribe(t, h.listener)
		}
	}

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if _, ok := h.userClients[client.UserID]; !ok {
				h.userClients[client.UserID] = make(map[*Client]bool)
			}
			h.userClients[client.UserID][client] = true
			h.mu.Unlock()
			slog.Debug("Websocket client registered", "userID", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()

				if userSet, ok := h.userClients[client.UserID]; ok {
					delete(userSet, client)
					if len(userSet) == 0 {
						delete(h.userClients, client.UserID)
					}
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.shutdown()
			return
		}
	}
}

// Join registers a client unless the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) BroadcastToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userClients[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err)
		return
	}
	for client := range clients {
		client.trySend(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) forward(event Event) {
	if event.Meta == nil || event.Meta.UserID == "" {
		return
	}
	h.BroadcastToUser(event.Meta.UserID, event)
}

func (h *Hub) shutdown() {
	if h.bus != nil {
		for _, t := range forwardedEvents() {
			h.bus.Unsubscribe(t, h.listener)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.closeSend()
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
}

func forwardedEvents() []EventType {
	events := make([]EventType, 0, len(ChatActivityEvents)+1)
	events = append(events, ChatActivityEvents...)
	return append(events, EventChatDeleted)
}
