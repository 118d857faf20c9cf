package chatstate

import (
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/websocket"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type Sender interface {
	SendEvent(event websocket.Event)
}

type RefreshLimiter interface {
	Allow(key string) (bool, time.Duration)
}

type SessionConfig struct {
	PageSize        int
	AutoFetch       bool
	RefreshInterval time.Duration
	Debounce        time.Duration
}

// Session binds one websocket connection to a chat list and an unread
// counter for the authenticated user and pushes every change to the client.
type Session struct {
	userID    string
	sender    Sender
	list      *ChatListState
	unread    *UnreadCounter
	limiter   RefreshLimiter
	validator *validator.Validate

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSession(userID string, sender Sender, lists ChatListFetcher, counts UnreadCountFetcher, bus websocket.EventBus, limiter RefreshLimiter, validate *validator.Validate, cfg SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		userID:    userID,
		sender:    sender,
		limiter:   limiter,
		validator: validate,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.list = NewChatListState(lists, Options{
		UserID:          userID,
		ChatType:        model.ChatTypeCombined,
		AutoFetch:       cfg.AutoFetch,
		RefreshInterval: cfg.RefreshInterval,
		PageSize:        cfg.PageSize,
		Debounce:        cfg.Debounce,
		Bus:             bus,
		OnChange:        s.pushChatList,
	})
	s.unread = NewUnreadCounter(counts, UnreadOptions{
		Bus:      bus,
		Debounce: cfg.Debounce,
		OnChange: s.pushUnread,
	})
	return s
}

func (s *Session) Start() {
	s.list.Start()
	s.unread.SetUserID(s.userID)
}

func (s *Session) HandleCommand(data []byte) {
	var cmd model.SessionCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.sendError("Malformed command")
		return
	}
	if err := s.validator.Struct(cmd); err != nil {
		slog.Warn("Invalid websocket command", "error", err, "userID", s.userID)
		s.sendError("Invalid command")
		return
	}

	switch cmd.Action {
	case model.ActionWatch:
		if err := s.validator.Struct(model.GetChatsRequest{Type: cmd.ChatType}); err != nil {
			s.sendError("Invalid chat type")
			return
		}
		s.list.SetIdentity(s.userID, model.ChatType(cmd.ChatType))

	case model.ActionRefresh:
		if !s.allow(cmd.Action) {
			return
		}
		s.spawn(s.list.RefreshChats)

	case model.ActionRefreshUnread:
		if !s.allow(cmd.Action) {
			return
		}
		s.spawn(s.unread.RefreshUnreadCount)

	case model.ActionMarkRead, model.ActionDelete:
		ref := model.ChatRefRequest{Type: cmd.ChatType, ChatID: cmd.ChatID}
		if err := s.validator.Struct(ref); err != nil {
			s.sendResult(model.ActionResult{Action: cmd.Action, ChatType: cmd.ChatType, ChatID: cmd.ChatID, Error: "Invalid chat reference"})
			return
		}
		s.spawn(func(ctx context.Context) {
			s.mutate(ctx, cmd.Action, model.ChatKind(ref.Type), ref.ChatID)
		})

	case model.ActionClear:
		s.list.ClearChats()
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.list.Close()
		s.unread.Close()
	})
}

func (s *Session) mutate(ctx context.Context, action string, kind model.ChatKind, chatID string) {
	var ok bool
	if action == model.ActionMarkRead {
		ok = s.list.MarkChatAsRead(ctx, kind, chatID)
	} else {
		ok = s.list.DeleteChat(ctx, kind, chatID)
	}

	result := model.ActionResult{Action: action, ChatType: string(kind), ChatID: chatID, Success: ok}
	if !ok {
		result.Error = "Action failed"
	}
	s.sendResult(result)

	// A successful mark-read publishes a status event that already refreshes
	// the counter. chat_deleted is not one of the counter's events.
	if ok && action == model.ActionDelete {
		s.unread.RefreshUnreadCount(ctx)
	}
}

func (s *Session) allow(action string) bool {
	if s.limiter == nil {
		return true
	}
	allowed, retryAfter := s.limiter.Allow(s.userID + ":" + action)
	if !allowed {
		s.sendError("Too many refreshes, retry in " + retryAfter.Round(time.Millisecond).String())
	}
	return allowed
}

func (s *Session) spawn(fn func(ctx context.Context)) {
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Session) pushChatList(snap Snapshot) {
	s.sender.SendEvent(websocket.Event{
		Type:    websocket.EventChatListState,
		Payload: snap,
		Meta:    s.meta(),
	})
}

func (s *Session) pushUnread(snap UnreadSnapshot) {
	s.sender.SendEvent(websocket.Event{
		Type:    websocket.EventUnreadState,
		Payload: snap,
		Meta:    s.meta(),
	})
}

func (s *Session) sendResult(result model.ActionResult) {
	s.sender.SendEvent(websocket.Event{
		Type:    websocket.EventActionResult,
		Payload: result,
		Meta: &websocket.EventMeta{
			Timestamp: time.Now().UnixMilli(),
			UserID:    s.userID,
			ChatID:    result.ChatID,
			ChatType:  result.ChatType,
		},
	})
}

func (s *Session) sendError(message string) {
	s.sender.SendEvent(websocket.Event{
		Type:    websocket.EventError,
		Payload: map[string]string{"error": message},
		Meta:    s.meta(),
	})
}

func (s *Session) meta() *websocket.EventMeta {
	return &websocket.EventMeta{
		Timestamp: time.Now().UnixMilli(),
		UserID:    s.userID,
	}
}
