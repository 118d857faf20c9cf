package model

import "time"

type ChatKind string

const (
	ChatKindIndividual ChatKind = "individual"
	ChatKindGroup      ChatKind = "group"
)

func (k ChatKind) Valid() bool {
	return k == ChatKindIndividual || k == ChatKindGroup
}

// ChatType selects which chat lists a fetch covers.
type ChatType string

const (
	ChatTypeIndividual ChatType = "individual"
	ChatTypeGroup      ChatType = "group"
	ChatTypeCombined   ChatType = "combined"
)

func (t ChatType) Valid() bool {
	return t == ChatTypeIndividual || t == ChatTypeGroup || t == ChatTypeCombined
}

// OrDefault maps the empty selector to ChatTypeCombined.
func (t ChatType) OrDefault() ChatType {
	if t == "" {
		return ChatTypeCombined
	}
	return t
}

type MemberPreview struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type IndividualChat struct {
	PartnerID                string     `json:"partner_id"`
	PartnerProfileID         string     `json:"partner_profile_id,omitempty"`
	PartnerDisplayName       string     `json:"partner_display_name"`
	PartnerAvatarURL         string     `json:"partner_avatar_url,omitempty"`
	LastMessageContent       string     `json:"last_message_content"`
	LastMessageAt            *time.Time `json:"last_message_at"`
	LastMessageSenderID      string     `json:"last_message_sender_id,omitempty"`
	LastMessageSenderName    string     `json:"last_message_sender_name,omitempty"`
	HasAnyMessageFromSelf    bool       `json:"has_any_message_from_self"`
	HasAnyMessageFromPartner bool       `json:"has_any_message_from_partner"`
	UnreadCount              int        `json:"unread_count"`
	IsPinned                 bool       `json:"is_pinned"`
}

type GroupChat struct {
	GroupID               string          `json:"group_id"`
	GroupName             string          `json:"group_name"`
	GroupAvatarURL        string          `json:"group_avatar_url,omitempty"`
	LastMessageContent    string          `json:"last_message_content"`
	LastMessageAt         *time.Time      `json:"last_message_at"`
	LastMessageSenderID   string          `json:"last_message_sender_id,omitempty"`
	LastMessageSenderName string          `json:"last_message_sender_name,omitempty"`
	HasAnyMessageFromSelf bool            `json:"has_any_message_from_self"`
	MemberCount           int             `json:"member_count"`
	OtherMembersPreview   []MemberPreview `json:"other_members_preview,omitempty"`
	UnreadCount           int             `json:"unread_count"`
	IsPinned              bool            `json:"is_pinned"`
}

// ChatListItem is a tagged union. Kind decides which payload is set.
type ChatListItem struct {
	Kind       ChatKind        `json:"kind"`
	Individual *IndividualChat `json:"individual,omitempty"`
	Group      *GroupChat      `json:"group,omitempty"`
}

type ChatKey struct {
	Kind ChatKind
	ID   string
}

func NewIndividualItem(c IndividualChat) ChatListItem {
	return ChatListItem{Kind: ChatKindIndividual, Individual: &c}
}

func NewGroupItem(c GroupChat) ChatListItem {
	return ChatListItem{Kind: ChatKindGroup, Group: &c}
}

func (i ChatListItem) Key() ChatKey {
	switch i.Kind {
	case ChatKindIndividual:
		return ChatKey{Kind: i.Kind, ID: i.Individual.PartnerID}
	case ChatKindGroup:
		return ChatKey{Kind: i.Kind, ID: i.Group.GroupID}
	default:
		return ChatKey{Kind: i.Kind}
	}
}

func (i ChatListItem) UnreadCount() int {
	switch i.Kind {
	case ChatKindIndividual:
		return i.Individual.UnreadCount
	case ChatKindGroup:
		return i.Group.UnreadCount
	default:
		return 0
	}
}

func (i ChatListItem) LastMessageAt() *time.Time {
	switch i.Kind {
	case ChatKindIndividual:
		return i.Individual.LastMessageAt
	case ChatKindGroup:
		return i.Group.LastMessageAt
	default:
		return nil
	}
}

func (i ChatListItem) IsPinned() bool {
	switch i.Kind {
	case ChatKindIndividual:
		return i.Individual.IsPinned
	case ChatKindGroup:
		return i.Group.IsPinned
	default:
		return false
	}
}

// WithUnreadCount returns a copy with its own payload, so the source list is
// never mutated.
func (i ChatListItem) WithUnreadCount(n int) ChatListItem {
	switch i.Kind {
	case ChatKindIndividual:
		c := *i.Individual
		c.UnreadCount = n
		return NewIndividualItem(c)
	case ChatKindGroup:
		c := *i.Group
		c.UnreadCount = n
		return NewGroupItem(c)
	default:
		return i
	}
}

const (
	DefaultChatListLimit = 50
	MaxChatListLimit     = 100
)

type ChatListOptions struct {
	Limit  int `json:"limit" validate:"omitempty,gt=0,max=100"`
	Offset int `json:"offset" validate:"omitempty,gte=0"`
}

// Normalize applies the default page size, caps it and clamps a negative offset.
func (o ChatListOptions) Normalize() ChatListOptions {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultChatListLimit
	case o.Limit > MaxChatListLimit:
		o.Limit = MaxChatListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

type ChatListResult struct {
	Chats   []ChatListItem `json:"chats"`
	HasMore bool           `json:"has_more"`
	Error   string         `json:"error,omitempty"`
}

type GetChatsRequest struct {
	Type   string `json:"type" validate:"omitempty,chat_type"`
	Limit  int    `json:"limit" validate:"omitempty,gt=0,max=100"`
	Offset int    `json:"offset" validate:"omitempty,gte=0"`
}

type ChatRefRequest struct {
	Type   string `json:"type" validate:"required,chat_kind"`
	ChatID string `json:"chat_id" validate:"required,uuid"`
}

type ChatMutationResponse struct {
	Success bool `json:"success"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

const (
	ActionWatch         = "watch"
	ActionRefresh       = "refresh"
	ActionRefreshUnread = "refresh_unread"
	ActionMarkRead      = "mark_read"
	ActionDelete        = "delete"
	ActionClear         = "clear"
)

// SessionCommand is a frame sent by a websocket client.
type SessionCommand struct {
	Action   string `json:"action" validate:"required,oneof=watch refresh refresh_unread mark_read delete clear"`
	ChatType string `json:"chat_type,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
}

type ActionResult struct {
	Action   string `json:"action"`
	ChatType string `json:"chat_type,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}
