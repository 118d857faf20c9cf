package controller

import (
	"ChatSyncAPI/internal/chatstate"
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/middleware"
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/service"
	"ChatSyncAPI/internal/websocket"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	ws "github.com/gorilla/websocket"
)

type WebSocketController struct {
	hub             *websocket.Hub
	bus             *websocket.Bus
	chatListService *service.ChatListService
	unreadService   *service.UnreadCountService
	limiter         chatstate.RefreshLimiter
	validator       *validator.Validate
	sessionConfig   chatstate.SessionConfig
}

func NewWebSocketController(cfg *config.AppConfig, hub *websocket.Hub, bus *websocket.Bus, chatListService *service.ChatListService, unreadService *service.UnreadCountService, limiter chatstate.RefreshLimiter, validator *validator.Validate) *WebSocketController {
	return &WebSocketController{
		hub:             hub,
		bus:             bus,
		chatListService: chatListService,
		unreadService:   unreadService,
		limiter:         limiter,
		validator:       validator,
		sessionConfig: chatstate.SessionConfig{
			PageSize:        cfg.ChatListPageSize,
			AutoFetch:       cfg.ChatListAutoFetch,
			RefreshInterval: cfg.ChatListRefreshInterval,
			Debounce:        cfg.RealtimeDebounce,
		},
	}
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS godoc
// @Summary      WebSocket Connection
// @Description  Upgrade to a chat list session. Requires the JWT in the 'token' query param. The server pushes chat_list.state and unread.state frames; the client sends watch, refresh, refresh_unread, mark_read, delete and clear commands.
// @Tags         websocket
// @Param        token  query     string  true  "JWT"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  helper.ResponseError
// @Router       /ws [get]
func (c *WebSocketController) ServeWS(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.UserDTO)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}

	client := websocket.NewClient(c.hub, conn, userContext.ID)
	session := chatstate.NewSession(userContext.ID, client, c.chatListService, c.unreadService, c.bus, c.limiter, c.validator, c.sessionConfig)
	client.Handler = session

	if !c.hub.Join(client) {
		session.Close()
		conn.Close()
		return
	}

	go client.WritePump()
	session.Start()
	go client.ReadPump()
}
