package service

import (
	"ChatSyncAPI/internal/health"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/websocket"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

type ChatListService struct {
	gateway   ChatGateway
	publisher EventPublisher
	avatars   AvatarResolver
	monitor   *health.Monitor
	validator *validator.Validate
}

func NewChatListService(gateway ChatGateway, publisher EventPublisher, avatars AvatarResolver, monitor *health.Monitor, validator *validator.Validate) *ChatListService {
	return &ChatListService{
		gateway:   gateway,
		publisher: publisher,
		avatars:   avatars,
		monitor:   monitor,
		validator: validator,
	}
}

func (s *ChatListService) FetchIndividualChatList(ctx context.Context, userID string, opts model.ChatListOptions) model.ChatListResult {
	opts = opts.Normalize()
	return s.fetchIndividual(ctx, userID, opts.Limit, opts.Offset)
}

func (s *ChatListService) FetchGroupChatList(ctx context.Context, userID string, opts model.ChatListOptions) model.ChatListResult {
	opts = opts.Normalize()
	return s.fetchGroup(ctx, userID, opts.Limit, opts.Offset)
}

func (s *ChatListService) fetchIndividual(ctx context.Context, userID string, limit, offset int) model.ChatListResult {
	start := time.Now()
	rows, hasMore, err := s.gateway.FetchIndividualChatList(ctx, userID, limit, offset)
	s.track(start, err)
	if err != nil {
		slog.Error("Failed to fetch individual chat list", "error", err, "userID", userID)
		return model.ChatListResult{Chats: []model.ChatListItem{}, Error: err.Error()}
	}

	chats := make([]model.ChatListItem, 0, len(rows))
	for _, row := range rows {
		chats = append(chats, model.NewIndividualItem(s.toIndividualChat(ctx, userID, row)))
	}
	return model.ChatListResult{Chats: chats, HasMore: hasMore}
}

func (s *ChatListService) fetchGroup(ctx context.Context, userID string, limit, offset int) model.ChatListResult {
	start := time.Now()
	rows, hasMore, err := s.gateway.FetchGroupChatList(ctx, userID, limit, offset)
	s.track(start, err)
	if err != nil {
		slog.Error("Failed to fetch group chat list", "error", err, "userID", userID)
		return model.ChatListResult{Chats: []model.ChatListItem{}, Error: err.Error()}
	}

	chats := make([]model.ChatListItem, 0, len(rows))
	for _, row := range rows {
		chats = append(chats, model.NewGroupItem(s.toGroupChat(ctx, userID, row)))
	}
	return model.ChatListResult{Chats: chats, HasMore: hasMore}
}

// FetchCombinedChatList loads both lists concurrently and merges them only
// once both calls have settled. A failure on either side fails the whole
// result.
//
// Offset and limit address the merged list. Each side is read from the top
// up to offset+limit rows, since either side may supply the whole page.
func (s *ChatListService) FetchCombinedChatList(ctx context.Context, userID string, opts model.ChatListOptions) model.ChatListResult {
	opts = opts.Normalize()
	window := opts.Offset + opts.Limit

	var individual, group model.ChatListResult

	var g errgroup.Group
	g.Go(func() error {
		individual = s.fetchIndividual(ctx, userID, window, 0)
		return nil
	})
	g.Go(func() error {
		group = s.fetchGroup(ctx, userID, window, 0)
		return nil
	})
	_ = g.Wait()

	if individual.Error != "" {
		return model.ChatListResult{Chats: []model.ChatListItem{}, Error: individual.Error}
	}
	if group.Error != "" {
		return model.ChatListResult{Chats: []model.ChatListItem{}, Error: group.Error}
	}

	merged := MergeChatLists(individual.Chats, group.Chats)
	hasMore := len(merged) > window || individual.HasMore || group.HasMore

	from, to := min(opts.Offset, len(merged)), min(window, len(merged))
	page := make([]model.ChatListItem, to-from)
	copy(page, merged[from:to])

	return model.ChatListResult{Chats: page, HasMore: hasMore}
}

func (s *ChatListService) FetchChatList(ctx context.Context, userID string, chatType model.ChatType, opts model.ChatListOptions) model.ChatListResult {
	switch chatType.OrDefault() {
	case model.ChatTypeIndividual:
		return s.FetchIndividualChatList(ctx, userID, opts)
	case model.ChatTypeGroup:
		return s.FetchGroupChatList(ctx, userID, opts)
	case model.ChatTypeCombined:
		return s.FetchCombinedChatList(ctx, userID, opts)
	default:
		return model.ChatListResult{Chats: []model.ChatListItem{}, Error: fmt.Sprintf("unknown chat type %q", chatType)}
	}
}

// ListChats serves the HTTP listing. Unlike FetchChatList it reports invalid
// input and gateway failures as errors.
func (s *ChatListService) ListChats(ctx context.Context, userID string, req model.GetChatsRequest) (*model.ChatListResult, error) {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError("")
	}

	result := s.FetchChatList(ctx, userID, model.ChatType(req.Type), model.ChatListOptions{Limit: req.Limit, Offset: req.Offset})
	if result.Error != "" {
		return nil, helper.WrapError(http.StatusServiceUnavailable, "Failed to load chats", errors.New(result.Error))
	}
	return &result, nil
}

// GetChatPreview returns nil when the chat is not visible to the user or the
// lookup failed.
func (s *ChatListService) GetChatPreview(ctx context.Context, userID string, kind model.ChatKind, chatID string) *model.ChatListItem {
	start := time.Now()

	switch kind {
	case model.ChatKindIndividual:
		row, err := s.gateway.GetIndividualChatPreview(ctx, userID, chatID)
		s.track(start, err)
		if err != nil {
			slog.Error("Failed to fetch individual chat preview", "error", err, "userID", userID, "partnerID", chatID)
			return nil
		}
		if row == nil {
			return nil
		}
		item := model.NewIndividualItem(s.toIndividualChat(ctx, userID, *row))
		return &item
	case model.ChatKindGroup:
		row, err := s.gateway.GetGroupChatPreview(ctx, userID, chatID)
		s.track(start, err)
		if err != nil {
			slog.Error("Failed to fetch group chat preview", "error", err, "userID", userID, "groupID", chatID)
			return nil
		}
		if row == nil {
			return nil
		}
		item := model.NewGroupItem(s.toGroupChat(ctx, userID, *row))
		return &item
	default:
		return nil
	}
}

func (s *ChatListService) MarkChatAsRead(ctx context.Context, userID string, kind model.ChatKind, chatID string) (bool, error) {
	start := time.Now()
	err := s.gateway.MarkChatAsRead(ctx, kind, chatID, userID)
	s.track(start, err)
	if err != nil {
		slog.Error("Failed to mark chat as read", "error", err, "userID", userID, "chatType", kind, "chatID", chatID)
		return false, err
	}

	eventType := websocket.EventMessageStatusUpdated
	if kind == model.ChatKindGroup {
		eventType = websocket.EventGroupMessageStatusUpdated
	}
	s.publish(ctx, eventType, userID, kind, chatID, map[string]interface{}{"status": "seen"})

	return true, nil
}

func (s *ChatListService) DeleteChat(ctx context.Context, userID string, kind model.ChatKind, chatID string) (bool, error) {
	start := time.Now()
	err := s.gateway.DeleteChat(ctx, kind, chatID, userID)
	s.track(start, err)
	if err != nil {
		slog.Error("Failed to delete chat", "error", err, "userID", userID, "chatType", kind, "chatID", chatID)
		return false, err
	}

	s.publish(ctx, websocket.EventChatDeleted, userID, kind, chatID, nil)

	return true, nil
}

// ValidateChatRef checks an HTTP chat reference before a preview or mutation.
func (s *ChatListService) ValidateChatRef(req model.ChatRefRequest) error {
	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "chatType", req.Type, "chatID", req.ChatID)
		return helper.NewBadRequestError("")
	}
	return nil
}

func (s *ChatListService) publish(ctx context.Context, eventType websocket.EventType, userID string, kind model.ChatKind, chatID string, extra map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	payload := map[string]interface{}{
		"chat_id":   chatID,
		"chat_type": string(kind),
	}
	for k, v := range extra {
		payload[k] = v
	}

	event := websocket.Event{
		Type:    eventType,
		Payload: payload,
		Meta: &websocket.EventMeta{
			Timestamp: time.Now().UnixMilli(),
			UserID:    userID,
			ChatID:    chatID,
			ChatType:  string(kind),
		},
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish realtime event", "error", err, "event", eventType, "userID", userID)
	}
}

func (s *ChatListService) track(start time.Time, err error) {
	if s.monitor != nil {
		s.monitor.Track(start, err)
	}
}

func (s *ChatListService) resolveAvatar(ctx context.Context, key *string) string {
	if key == nil {
		return ""
	}
	if s.avatars == nil {
		return *key
	}
	return s.avatars.ResolveAvatarURL(ctx, *key)
}

func (s *ChatListService) toIndividualChat(ctx context.Context, userID string, row model.IndividualChatRow) model.IndividualChat {
	return model.IndividualChat{
		PartnerID:                row.PartnerUserID,
		PartnerProfileID:         helper.StringValue(row.PartnerProfileID),
		PartnerDisplayName:       helper.BuildDisplayName(row.PartnerFirstName, row.PartnerLastName),
		PartnerAvatarURL:         s.resolveAvatar(ctx, row.PartnerProfilePicture),
		LastMessageContent:       helper.FormatLastMessageForPreview(row.LastMessageContent, row.LastMessageSenderID, row.LastMessageSenderName, userID),
		LastMessageAt:            row.LastMessageCreatedAt,
		LastMessageSenderID:      helper.StringValue(row.LastMessageSenderID),
		LastMessageSenderName:    helper.StringValue(row.LastMessageSenderName),
		HasAnyMessageFromSelf:    row.CurrentUserSentAnyMessage,
		HasAnyMessageFromPartner: row.PartnerSentAnyMessage,
		UnreadCount:              nonNegative(row.UnreadCount),
		IsPinned:                 row.IsPinned,
	}
}

func (s *ChatListService) toGroupChat(ctx context.Context, userID string, row model.GroupChatRow) model.GroupChat {
	return model.GroupChat{
		GroupID:               row.GroupID,
		GroupName:             helper.StringValue(row.GroupName),
		GroupAvatarURL:        s.resolveAvatar(ctx, row.GroupImage),
		LastMessageContent:    helper.FormatLastMessageForPreview(row.LastMessageContent, row.LastMessageSenderID, row.LastMessageSenderName, userID),
		LastMessageAt:         row.LastMessageCreatedAt,
		LastMessageSenderID:   helper.StringValue(row.LastMessageSenderID),
		LastMessageSenderName: helper.StringValue(row.LastMessageSenderName),
		HasAnyMessageFromSelf: row.CurrentUserSentAnyMessage,
		MemberCount:           nonNegative(row.MemberCount),
		OtherMembersPreview:   row.OtherMembersPreview,
		UnreadCount:           nonNegative(row.UnreadCount),
		IsPinned:              row.IsPinned,
	}
}

// MergeChatLists puts pinned chats first in server order, then the rest by
// last activity, newest first, with chats that have no message last. Keys
// seen twice keep their first occurrence.
func MergeChatLists(individual, group []model.ChatListItem) []model.ChatListItem {
	seen := make(map[model.ChatKey]bool, len(individual)+len(group))
	pinned := make([]model.ChatListItem, 0)
	rest := make([]model.ChatListItem, 0, len(individual)+len(group))

	for _, list := range [][]model.ChatListItem{individual, group} {
		for _, item := range list {
			key := item.Key()
			if seen[key] {
				continue
			}
			seen[key] = true

			if item.IsPinned() {
				pinned = append(pinned, item)
			} else {
				rest = append(rest, item)
			}
		}
	}

	sort.SliceStable(rest, func(i, j int) bool {
		ti, tj := rest[i].LastMessageAt(), rest[j].LastMessageAt()
		switch {
		case ti == nil && tj != nil:
			return false
		case ti != nil && tj == nil:
			return true
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		}

		ki, kj := rest[i].Key(), rest[j].Key()
		if ki.Kind != kj.Kind {
			return ki.Kind < kj.Kind
		}
		return ki.ID < kj.ID
	})

	return append(pinned, rest...)
}

func nonNegative(n *int) int {
	if v := helper.IntValue(n); v > 0 {
		return v
	}
	return 0
}
