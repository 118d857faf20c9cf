package service

import (
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/websocket"
	"context"
)

// ChatGateway is the remote store behind the chat list. The Postgres
// implementation lives in the repository package.
type ChatGateway interface {
	FetchIndividualChatList(ctx context.Context, userID string, limit, offset int) ([]model.IndividualChatRow, bool, error)
	FetchGroupChatList(ctx context.Context, userID string, limit, offset int) ([]model.GroupChatRow, bool, error)
	GetIndividualChatPreview(ctx context.Context, userID, partnerID string) (*model.IndividualChatRow, error)
	GetGroupChatPreview(ctx context.Context, userID, groupID string) (*model.GroupChatRow, error)
	MarkChatAsRead(ctx context.Context, kind model.ChatKind, chatID, userID string) error
	DeleteChat(ctx context.Context, kind model.ChatKind, chatID, userID string) error
}

type UnreadSource interface {
	GetIndividualUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error)
	GetGroupUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

type AvatarResolver interface {
	ResolveAvatarURL(ctx context.Context, key string) string
}
