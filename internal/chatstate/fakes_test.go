package chatstate

import (
	"ChatSyncAPI/internal/model"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type listResponse struct {
	result model.ChatListResult
	gate   chan struct{}
}

// fakeFetcher answers FetchChatList per user. A response with a gate blocks
// until the gate is closed or the call is cancelled.
type fakeFetcher struct {
	mu          sync.Mutex
	responses   map[string]listResponse
	fetchCalls  int32
	mutationErr error
	mutations   []string
	onMarkRead  func(userID string, kind model.ChatKind, chatID string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]listResponse)}
}

func (f *fakeFetcher) set(userID string, result model.ChatListResult, gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[userID] = listResponse{result: result, gate: gate}
}

func (f *fakeFetcher) calls() int {
	return int(atomic.LoadInt32(&f.fetchCalls))
}

func (f *fakeFetcher) FetchChatList(ctx context.Context, userID string, chatType model.ChatType, opts model.ChatListOptions) model.ChatListResult {
	atomic.AddInt32(&f.fetchCalls, 1)

	f.mu.Lock()
	resp := f.responses[userID]
	f.mu.Unlock()

	if resp.gate != nil {
		select {
		case <-resp.gate:
		case <-ctx.Done():
			return model.ChatListResult{Chats: []model.ChatListItem{}, Error: ctx.Err().Error()}
		}
	}
	return resp.result
}

func (f *fakeFetcher) MarkChatAsRead(ctx context.Context, userID string, kind model.ChatKind, chatID string) (bool, error) {
	ok, err := f.mutate("mark_read:" + string(kind) + ":" + chatID)
	if ok && f.onMarkRead != nil {
		f.onMarkRead(userID, kind, chatID)
	}
	return ok, err
}

func (f *fakeFetcher) DeleteChat(ctx context.Context, userID string, kind model.ChatKind, chatID string) (bool, error) {
	return f.mutate("delete:" + string(kind) + ":" + chatID)
}

func (f *fakeFetcher) mutate(call string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, call)
	if f.mutationErr != nil {
		return false, f.mutationErr
	}
	return true, nil
}

type fakeCounter struct {
	total int32
	calls int32
	gate  chan struct{}
}

func (f *fakeCounter) GetTotalUnreadCount(ctx context.Context, userID string) int {
	atomic.AddInt32(&f.calls, 1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return 0
		}
	}
	return int(atomic.LoadInt32(&f.total))
}

func (f *fakeCounter) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

var errRemote = errors.New("remote unavailable")

func individual(id string, unread int) model.ChatListItem {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.NewIndividualItem(model.IndividualChat{PartnerID: id, UnreadCount: unread, LastMessageAt: &at})
}

func group(id string, unread int) model.ChatListItem {
	return model.NewGroupItem(model.GroupChat{GroupID: id, UnreadCount: unread})
}

func keys(items []model.ChatListItem) []model.ChatKey {
	out := make([]model.ChatKey, 0, len(items))
	for _, item := range items {
		out = append(out, item.Key())
	}
	return out
}
