package service

import (
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/websocket"
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeGateway struct {
	mu sync.Mutex

	individual        []model.IndividualChatRow
	individualHasMore bool
	individualErr     error
	group             []model.GroupChatRow
	groupHasMore      bool
	groupErr          error
	previewErr        error
	mutationErr       error

	calls   []string
	windows []string
}

func pageRows[T any](rows []T, limit, offset int) ([]T, bool) {
	if offset >= len(rows) {
		return []T{}, false
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end], end < len(rows)
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) recordWindow(side string, limit, offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, fmt.Sprintf("%s:%d:%d", side, limit, offset))
}

func (f *fakeGateway) FetchIndividualChatList(ctx context.Context, userID string, limit, offset int) ([]model.IndividualChatRow, bool, error) {
	f.record("individual")
	f.recordWindow("individual", limit, offset)
	rows, more := pageRows(f.individual, limit, offset)
	return rows, more || f.individualHasMore, f.individualErr
}

func (f *fakeGateway) FetchGroupChatList(ctx context.Context, userID string, limit, offset int) ([]model.GroupChatRow, bool, error) {
	f.record("group")
	f.recordWindow("group", limit, offset)
	rows, more := pageRows(f.group, limit, offset)
	return rows, more || f.groupHasMore, f.groupErr
}

func (f *fakeGateway) GetIndividualChatPreview(ctx context.Context, userID, partnerID string) (*model.IndividualChatRow, error) {
	f.record("individual_preview")
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	for _, row := range f.individual {
		if row.PartnerUserID == partnerID {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) GetGroupChatPreview(ctx context.Context, userID, groupID string) (*model.GroupChatRow, error) {
	f.record("group_preview")
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	for _, row := range f.group {
		if row.GroupID == groupID {
			r := row
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) MarkChatAsRead(ctx context.Context, kind model.ChatKind, chatID, userID string) error {
	f.record("mark_read:" + string(kind) + ":" + chatID)
	return f.mutationErr
}

func (f *fakeGateway) DeleteChat(ctx context.Context, kind model.ChatKind, chatID, userID string) error {
	f.record("delete:" + string(kind) + ":" + chatID)
	return f.mutationErr
}

type fakePublisher struct {
	mu     sync.Mutex
	events []websocket.Event
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event websocket.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type fakeUnreadSource struct {
	individual    []model.UnreadSummaryRow
	individualErr error
	group         []model.UnreadSummaryRow
	groupErr      error
}

func (f *fakeUnreadSource) GetIndividualUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error) {
	return f.individual, f.individualErr
}

func (f *fakeUnreadSource) GetGroupUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error) {
	return f.group, f.groupErr
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func timeAt(minute int) *time.Time {
	t := time.Date(2026, 5, 1, 12, minute, 0, 0, time.UTC)
	return &t
}

func individualRow(partnerID string, at *time.Time, unread *int) model.IndividualChatRow {
	return model.IndividualChatRow{
		PartnerUserID:        partnerID,
		LastMessageContent:   strPtr("hi from " + partnerID),
		LastMessageCreatedAt: at,
		UnreadCount:          unread,
	}
}

func groupRow(groupID string, at *time.Time, unread *int) model.GroupChatRow {
	return model.GroupChatRow{
		GroupID:              groupID,
		GroupName:            strPtr("Group " + groupID),
		LastMessageCreatedAt: at,
		UnreadCount:          unread,
	}
}
