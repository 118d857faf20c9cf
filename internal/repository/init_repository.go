package repository

import (
	"ChatSyncAPI/internal/adapter"

	"entgo.io/ent/dialect/sql"
)

type Repository struct {
	ChatList  *ChatListRepository
	Unread    *UnreadRepository
	ReadState *ReadStateRepository
	RateLimit *RateLimitRepository
}

func NewRepository(drv *sql.Driver, redisAdapter *adapter.RedisAdapter) *Repository {
	return &Repository{
		ChatList:  NewChatListRepository(drv),
		Unread:    NewUnreadRepository(drv),
		ReadState: NewReadStateRepository(drv),
		RateLimit: NewRateLimitRepository(redisAdapter),
	}
}
