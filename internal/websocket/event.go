package websocket

type EventType string

const (
	EventNewMessage                EventType = "new_message_notification"
	EventNewGroupMessage           EventType = "new_group_message_notification"
	EventMessageStatusUpdated      EventType = "message_status_updated"
	EventGroupMessageStatusUpdated EventType = "group_message_status_updated"
	EventChatDeleted               EventType = "chat_deleted"

	EventChatListState EventType = "chat_list.state"
	EventUnreadState   EventType = "unread.state"
	EventActionResult  EventType = "chat.action_result"
	EventError         EventType = "error"
)

// ChatActivityEvents are the notifications that can change a user's chat list
// or unread total.
var ChatActivityEvents = []EventType{
	EventNewMessage,
	EventNewGroupMessage,
	EventMessageStatusUpdated,
	EventGroupMessageStatusUpdated,
}

type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	Meta    *EventMeta  `json:"meta,omitempty"`
}

// EventMeta.UserID is the recipient the event is addressed to.
type EventMeta struct {
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	ChatType  string `json:"chat_type,omitempty"`
}

// AddressedTo reports whether the event targets userID.
func (e Event) AddressedTo(userID string) bool {
	return userID != "" && e.Meta != nil && e.Meta.UserID == userID
}
