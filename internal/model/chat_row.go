package model

import "time"

// IndividualChatRow mirrors one row of get_individual_chat_list.
type IndividualChatRow struct {
	PartnerUserID             string
	LastMessageContent        *string
	LastMessageCreatedAt      *time.Time
	LastMessageSenderID       *string
	LastMessageSenderName     *string
	PartnerFirstName          *string
	PartnerLastName           *string
	PartnerProfilePicture     *string
	CurrentUserSentAnyMessage bool
	PartnerSentAnyMessage     bool
	PartnerProfileID          *string
	UnreadCount               *int
	IsPinned                  bool
}

// GroupChatRow mirrors one row of get_group_chat_list.
type GroupChatRow struct {
	GroupID                   string
	GroupName                 *string
	GroupImage                *string
	LastMessageContent        *string
	LastMessageCreatedAt      *time.Time
	LastMessageSenderID       *string
	LastMessageSenderName     *string
	CurrentUserSentAnyMessage bool
	MemberCount               *int
	OtherMembersPreview       []MemberPreview
	UnreadCount               *int
	IsPinned                  bool
}

type UnreadSummaryRow struct {
	ChatID      string
	UnreadCount *int
}
