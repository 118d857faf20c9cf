package controller

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/health"
	"ChatSyncAPI/internal/middleware"
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/service"
	"ChatSyncAPI/internal/websocket"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type    websocket.EventType `json:"type"`
	Payload json.RawMessage     `json:"payload"`
}

func readFrameOfType(t *testing.T, conn *ws.Conn, eventType websocket.EventType, accept func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var frame wsFrame
		err := conn.ReadJSON(&frame)
		require.NoError(t, err)
		if frame.Type == eventType && accept(frame.Payload) {
			return frame.Payload
		}
	}
}

func TestServeWS(t *testing.T) {
	gw := &fakeGateway{
		individual: []model.IndividualChatRow{
			{PartnerUserID: testPartnerID, LastMessageCreatedAt: timeAt(3)},
		},
	}
	unread := &fakeUnreadSource{
		individual: []model.UnreadSummaryRow{{ChatID: testPartnerID, UnreadCount: intPtr(6)}},
	}

	cfg := &config.AppConfig{
		ChatListPageSize:     50,
		ChatListAutoFetch:    true,
		WSRefreshRateSeconds: 1,
	}

	bus := websocket.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()
	defer hub.Stop()

	monitor := health.NewMonitor()
	chatListService := service.NewChatListService(gw, nil, nil, monitor, config.NewValidator())
	unreadService := service.NewUnreadCountService(unread, monitor)
	limiter := config.NewRefreshLimiter(cfg)
	defer limiter.Stop()

	c := NewWebSocketController(cfg, hub, bus, chatListService, unreadService, limiter, config.NewValidator())

	withUser := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, testUser)
			next(w, r.WithContext(ctx))
		}
	}

	server := httptest.NewServer(withUser(c.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("Pushes Initial State", func(t *testing.T) {
		var items []model.ChatListItem
		unreadCount := -1

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for items == nil || unreadCount < 0 {
			var frame wsFrame
			require.NoError(t, conn.ReadJSON(&frame))

			switch frame.Type {
			case websocket.EventChatListState:
				var snap struct {
					UserID      string               `json:"user_id"`
					Items       []model.ChatListItem `json:"items"`
					Initialized bool                 `json:"initialized"`
					Loading     bool                 `json:"loading"`
				}
				require.NoError(t, json.Unmarshal(frame.Payload, &snap))
				assert.Equal(t, testUserID, snap.UserID)
				if snap.Initialized && !snap.Loading {
					items = snap.Items
				}
			case websocket.EventUnreadState:
				var snap struct {
					UnreadCount int `json:"unread_count"`
				}
				require.NoError(t, json.Unmarshal(frame.Payload, &snap))
				if snap.UnreadCount > 0 {
					unreadCount = snap.UnreadCount
				}
			}
		}

		require.Len(t, items, 1)
		assert.Equal(t, testPartnerID, items[0].Individual.PartnerID)
		assert.Equal(t, 6, unreadCount)
	})

	t.Run("Handles Commands", func(t *testing.T) {
		err := conn.WriteJSON(model.SessionCommand{Action: model.ActionMarkRead, ChatType: "individual", ChatID: testPartnerID})
		require.NoError(t, err)

		payload := readFrameOfType(t, conn, websocket.EventActionResult, func(json.RawMessage) bool { return true })

		var result model.ActionResult
		require.NoError(t, json.Unmarshal(payload, &result))
		assert.True(t, result.Success)
		assert.Equal(t, model.ActionMarkRead, result.Action)
	})

	t.Run("Registers Client", func(t *testing.T) {
		assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	})
}
