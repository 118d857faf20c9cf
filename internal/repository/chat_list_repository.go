package repository

import (
	"ChatSyncAPI/internal/model"
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
)

const individualChatListColumns = `partner_user_id, last_message_content, last_message_created_at,
	last_message_sender_id, last_message_sender_name, partner_first_name, partner_last_name,
	partner_profile_picture, current_user_sent_any_message, partner_sent_any_message,
	partner_profile_id, unread_count, is_pinned`

const groupChatListColumns = `group_id, group_name, group_image, last_message_content,
	last_message_created_at, last_message_sender_id, last_message_sender_name,
	current_user_sent_any_message, member_count, other_members_preview, unread_count, is_pinned`

type ChatListRepository struct {
	drv *sql.Driver
}

func NewChatListRepository(drv *sql.Driver) *ChatListRepository {
	return &ChatListRepository{
		drv: drv,
	}
}

// FetchIndividualChatList asks for limit+1 rows so the caller learns whether
// another page exists without a count query. The caller bounds limit.
func (r *ChatListRepository) FetchIndividualChatList(ctx context.Context, userID string, limit, offset int) ([]model.IndividualChatRow, bool, error) {
	limit = normalizeLimit(limit)
	query := fmt.Sprintf("SELECT %s FROM get_individual_chat_list($1, $2, $3)", individualChatListColumns)

	items, err := r.queryIndividual(ctx, query, []any{userID, limit + 1, normalizeOffset(offset)})
	if err != nil {
		return nil, false, fmt.Errorf("get_individual_chat_list: %w", err)
	}

	hasNext := len(items) > limit
	if hasNext {
		items = items[:limit]
	}
	return items, hasNext, nil
}

func (r *ChatListRepository) FetchGroupChatList(ctx context.Context, userID string, limit, offset int) ([]model.GroupChatRow, bool, error) {
	limit = normalizeLimit(limit)
	query := fmt.Sprintf("SELECT %s FROM get_group_chat_list($1, $2, $3)", groupChatListColumns)

	items, err := r.queryGroup(ctx, query, []any{userID, limit + 1, normalizeOffset(offset)})
	if err != nil {
		return nil, false, fmt.Errorf("get_group_chat_list: %w", err)
	}

	hasNext := len(items) > limit
	if hasNext {
		items = items[:limit]
	}
	return items, hasNext, nil
}

// GetIndividualChatPreview returns nil when the user has no visible
// conversation with the partner.
func (r *ChatListRepository) GetIndividualChatPreview(ctx context.Context, userID, partnerID string) (*model.IndividualChatRow, error) {
	query := fmt.Sprintf("SELECT %s FROM get_individual_chat_list($1, NULL, 0) WHERE partner_user_id = $2 LIMIT 1", individualChatListColumns)

	items, err := r.queryIndividual(ctx, query, []any{userID, partnerID})
	if err != nil {
		return nil, fmt.Errorf("individual chat preview: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *ChatListRepository) GetGroupChatPreview(ctx context.Context, userID, groupID string) (*model.GroupChatRow, error) {
	query := fmt.Sprintf("SELECT %s FROM get_group_chat_list($1, NULL, 0) WHERE group_id = $2 LIMIT 1", groupChatListColumns)

	items, err := r.queryGroup(ctx, query, []any{userID, groupID})
	if err != nil {
		return nil, fmt.Errorf("group chat preview: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// MarkChatAsRead marks every message the partner sent to the user as seen,
// or inserts read receipts for every group message the user did not send.
func (r *ChatListRepository) MarkChatAsRead(ctx context.Context, kind model.ChatKind, chatID, userID string) error {
	var query string
	var args []any

	switch kind {
	case model.ChatKindIndividual:
		query = "SELECT mark_all_messages_seen_from_user($1, $2)"
		args = []any{chatID, userID}
	case model.ChatKindGroup:
		query = "SELECT mark_all_group_messages_seen($1, $2)"
		args = []any{chatID, userID}
	default:
		return fmt.Errorf("unknown chat kind %q", kind)
	}

	var res stdsql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("mark %s chat as read: %w", kind, err)
	}
	return nil
}

// DeleteChat hides an individual conversation for the user only. For a group
// it removes the membership row, so the user leaves the group.
func (r *ChatListRepository) DeleteChat(ctx context.Context, kind model.ChatKind, chatID, userID string) error {
	builder := sql.Dialect(dialect.Postgres)

	var query string
	var args []any

	switch kind {
	case model.ChatKindIndividual:
		query, args = builder.Insert("hidden_chats").
			Columns("user_id", "partner_id", "hidden_at").
			Values(userID, chatID, time.Now().UTC()).
			OnConflict(
				sql.ConflictColumns("user_id", "partner_id"),
				sql.ResolveWithNewValues(),
			).
			Query()
	case model.ChatKindGroup:
		query, args = builder.Delete("group_participants").
			Where(sql.And(
				sql.EQ("group_id", chatID),
				sql.EQ("user_id", userID),
			)).
			Query()
	default:
		return fmt.Errorf("unknown chat kind %q", kind)
	}

	var res stdsql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete %s chat: %w", kind, err)
	}
	return nil
}

func (r *ChatListRepository) queryIndividual(ctx context.Context, query string, args []any) ([]model.IndividualChatRow, error) {
	var rows sql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.IndividualChatRow
	for rows.Next() {
		var (
			row                                     model.IndividualChatRow
			content, senderID, senderName           stdsql.NullString
			firstName, lastName, picture, profileID stdsql.NullString
			createdAt                               stdsql.NullTime
			unread                                  stdsql.NullInt64
			sentAny, partnerSentAny, pinned         stdsql.NullBool
		)
		if err := rows.Scan(
			&row.PartnerUserID, &content, &createdAt,
			&senderID, &senderName, &firstName, &lastName,
			&picture, &sentAny, &partnerSentAny,
			&profileID, &unread, &pinned,
		); err != nil {
			return nil, fmt.Errorf("scan individual chat row: %w", err)
		}

		row.LastMessageContent = nullString(content)
		row.LastMessageCreatedAt = nullTime(createdAt)
		row.LastMessageSenderID = nullString(senderID)
		row.LastMessageSenderName = nullString(senderName)
		row.PartnerFirstName = nullString(firstName)
		row.PartnerLastName = nullString(lastName)
		row.PartnerProfilePicture = nullString(picture)
		row.CurrentUserSentAnyMessage = sentAny.Bool
		row.PartnerSentAnyMessage = partnerSentAny.Bool
		row.PartnerProfileID = nullString(profileID)
		row.UnreadCount = nullInt(unread)
		row.IsPinned = pinned.Bool

		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ChatListRepository) queryGroup(ctx context.Context, query string, args []any) ([]model.GroupChatRow, error) {
	var rows sql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.GroupChatRow
	for rows.Next() {
		var (
			row                  model.GroupChatRow
			name, image, content stdsql.NullString
			senderID, senderName stdsql.NullString
			createdAt            stdsql.NullTime
			memberCount, unread  stdsql.NullInt64
			sentAny, pinned      stdsql.NullBool
			preview              []byte
		)
		if err := rows.Scan(
			&row.GroupID, &name, &image, &content,
			&createdAt, &senderID, &senderName,
			&sentAny, &memberCount, &preview, &unread, &pinned,
		); err != nil {
			return nil, fmt.Errorf("scan group chat row: %w", err)
		}

		row.GroupName = nullString(name)
		row.GroupImage = nullString(image)
		row.LastMessageContent = nullString(content)
		row.LastMessageCreatedAt = nullTime(createdAt)
		row.LastMessageSenderID = nullString(senderID)
		row.LastMessageSenderName = nullString(senderName)
		row.CurrentUserSentAnyMessage = sentAny.Bool
		row.MemberCount = nullInt(memberCount)
		row.UnreadCount = nullInt(unread)
		row.IsPinned = pinned.Bool

		if len(preview) > 0 {
			if err := json.Unmarshal(preview, &row.OtherMembersPreview); err != nil {
				return nil, fmt.Errorf("decode other_members_preview: %w", err)
			}
		}

		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return model.DefaultChatListLimit
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func nullString(v stdsql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v stdsql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullInt(v stdsql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
