package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// CommandHandler consumes the frames a client sends. Close is called once
// when the connection ends.
type CommandHandler interface {
	HandleCommand(data []byte)
	Close()
}

type Client struct {
	Hub     *Hub
	Conn    *ws.Conn
	Send    chan []byte
	UserID  string
	Handler CommandHandler

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *ws.Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
		UserID: userID,
	}
}

// SendEvent queues an event for this connection only. Events sent after the
// connection closed are dropped.
func (c *Client) SendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "event", event.Type)
		return
	}
	c.trySend(data)
}

func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		slog.Warn("Websocket send buffer full, dropping frame", "userID", c.UserID)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		if c.Handler != nil {
			c.Handler.Close()
		}
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
				slog.Warn("Websocket closed unexpectedly", "error", err, "userID", c.UserID)
			}
			return
		}
		if c.Handler != nil {
			c.Handler.HandleCommand(message)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
