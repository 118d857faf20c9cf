package helper

import "strings"

const SharedEventPrefix = "SHARED_EVENT:"

// FormatLastMessageForPreview turns a raw last-message body into the text shown
// in a chat list row. Shared-event payloads are replaced with a sentence naming
// the sender.
func FormatLastMessageForPreview(content *string, senderID *string, senderName *string, currentUserID string) string {
	if content == nil {
		return ""
	}
	if !strings.HasPrefix(*content, SharedEventPrefix) {
		return *content
	}

	if senderID != nil && *senderID == currentUserID {
		return "You shared an event"
	}
	if senderName != nil && strings.TrimSpace(*senderName) != "" {
		return strings.TrimSpace(*senderName) + " shared an event"
	}
	return "Someone shared an event"
}

func BuildDisplayName(firstName, lastName *string) string {
	parts := make([]string, 0, 2)
	if firstName != nil && strings.TrimSpace(*firstName) != "" {
		parts = append(parts, strings.TrimSpace(*firstName))
	}
	if lastName != nil && strings.TrimSpace(*lastName) != "" {
		parts = append(parts, strings.TrimSpace(*lastName))
	}
	if len(parts) == 0 {
		return "Unknown User"
	}
	return strings.Join(parts, " ")
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func IntValue(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
