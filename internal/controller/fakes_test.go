package controller

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/health"
	"ChatSyncAPI/internal/middleware"
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testPartnerID = "22222222-2222-2222-2222-222222222222"
	testGroupID   = "33333333-3333-3333-3333-333333333333"
)

type fakeGateway struct {
	mu sync.Mutex

	individual    []model.IndividualChatRow
	group         []model.GroupChatRow
	hasMore       bool
	fetchErr      error
	mutationErr   error
	mutations     []string
	limits        []int
	offsets       []int
}

func (f *fakeGateway) FetchIndividualChatList(ctx context.Context, userID string, limit, offset int) ([]model.IndividualChatRow, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	f.offsets = append(f.offsets, offset)
	return f.individual, f.hasMore, f.fetchErr
}

func (f *fakeGateway) FetchGroupChatList(ctx context.Context, userID string, limit, offset int) ([]model.GroupChatRow, bool, error) {
	return f.group, false, f.fetchErr
}

func (f *fakeGateway) GetIndividualChatPreview(ctx context.Context, userID, partnerID string) (*model.IndividualChatRow, error) {
	for _, row := range f.individual {
		if row.PartnerUserID == partnerID {
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) GetGroupChatPreview(ctx context.Context, userID, groupID string) (*model.GroupChatRow, error) {
	for _, row := range f.group {
		if row.GroupID == groupID {
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeGateway) MarkChatAsRead(ctx context.Context, kind model.ChatKind, chatID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, "read:"+string(kind)+":"+chatID)
	return f.mutationErr
}

func (f *fakeGateway) DeleteChat(ctx context.Context, kind model.ChatKind, chatID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, "delete:"+string(kind)+":"+chatID)
	return f.mutationErr
}

type fakeUnreadSource struct {
	individual []model.UnreadSummaryRow
	group      []model.UnreadSummaryRow
}

func (f *fakeUnreadSource) GetIndividualUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error) {
	return f.individual, nil
}

func (f *fakeUnreadSource) GetGroupUnreadSummary(ctx context.Context, userID string) ([]model.UnreadSummaryRow, error) {
	return f.group, nil
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func timeAt(minute int) *time.Time {
	t := time.Date(2024, 1, 1, 12, minute, 0, 0, time.UTC)
	return &t
}

func newTestController(gw *fakeGateway, unread *fakeUnreadSource) *ChatListController {
	monitor := health.NewMonitor()
	chatListService := service.NewChatListService(gw, nil, nil, monitor, config.NewValidator())
	unreadService := service.NewUnreadCountService(unread, monitor)
	return NewChatListController(chatListService, unreadService)
}

func newTestRouter(c *ChatListController) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/chats", c.GetChats)
	r.Get("/api/chats/unread-count", c.GetUnreadCount)
	r.Get("/api/chats/{type}/{id}", c.GetChatPreview)
	r.Post("/api/chats/{type}/{id}/read", c.MarkChatAsRead)
	r.Delete("/api/chats/{type}/{id}", c.DeleteChat)
	return r
}

func executeRequest(router http.Handler, req *http.Request, user *model.UserDTO) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, user))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
