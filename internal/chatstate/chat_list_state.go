package chatstate

import (
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/websocket"
	"context"
	"log/slog"
	"sync"
	"time"
)

const ErrUserIDRequired = "User ID is required"

type ChatListFetcher interface {
	FetchChatList(ctx context.Context, userID string, chatType model.ChatType, opts model.ChatListOptions) model.ChatListResult
	MarkChatAsRead(ctx context.Context, userID string, kind model.ChatKind, chatID string) (bool, error)
	DeleteChat(ctx context.Context, userID string, kind model.ChatKind, chatID string) (bool, error)
}

type Snapshot struct {
	UserID      string               `json:"user_id"`
	ChatType    model.ChatType       `json:"chat_type"`
	Items       []model.ChatListItem `json:"items"`
	Loading     bool                 `json:"loading"`
	Error       *string              `json:"error"`
	HasMore     bool                 `json:"has_more"`
	Initialized bool                 `json:"initialized"`

	seq uint64
}

// OnChange must not call back into the state.
type Options struct {
	UserID          string
	ChatType        model.ChatType
	AutoFetch       bool
	RefreshInterval time.Duration
	PageSize        int
	Debounce        time.Duration
	Bus             websocket.EventBus
	OnChange        func(Snapshot)
}

// DefaultOptions enables auto fetch over the combined list.
func DefaultOptions(userID string) Options {
	return Options{
		UserID:    userID,
		ChatType:  model.ChatTypeCombined,
		AutoFetch: true,
	}
}

// ChatListState holds one viewer's chat list. Results that arrive after the
// identity changed or the state was closed are dropped.
type ChatListState struct {
	fetcher ChatListFetcher
	opts    Options

	mu          sync.Mutex
	userID      string
	chatType    model.ChatType
	items       []model.ChatListItem
	loading     bool
	err         *string
	hasMore     bool
	initialized bool
	generation  uint64
	started     bool
	closed      bool
	seq         uint64

	rootCtx        context.Context
	rootCancel     context.CancelFunc
	identityCtx    context.Context
	identityCancel context.CancelFunc
	tickerStop     chan struct{}
	listener       *websocket.Listener
	debounce       *debouncer
	wg             sync.WaitGroup

	notifyMu     sync.Mutex
	lastNotified uint64
}

func NewChatListState(fetcher ChatListFetcher, opts Options) *ChatListState {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	identityCtx, identityCancel := context.WithCancel(rootCtx)

	s := &ChatListState{
		fetcher:        fetcher,
		opts:           opts,
		userID:         opts.UserID,
		chatType:       opts.ChatType.OrDefault(),
		items:          []model.ChatListItem{},
		rootCtx:        rootCtx,
		rootCancel:     rootCancel,
		identityCtx:    identityCtx,
		identityCancel: identityCancel,
	}
	s.listener = websocket.NewListener(s.onEvent)
	if opts.Debounce > 0 {
		s.debounce = newDebouncer(opts.Debounce, func() {
			s.spawn(s.RefreshChats)
		})
	}
	return s
}

// Start subscribes to realtime events and runs the initial fetch when auto
// fetch is on.
func (s *ChatListState) Start() {
	s.mu.Lock()
	if s.closed || s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	if s.opts.Bus != nil {
		for _, t := range websocket.ChatActivityEvents {
			s.opts.Bus.Subscribe(t, s.listener)
		}
	}
	shouldFetch := s.opts.AutoFetch && !s.initialized
	s.mu.Unlock()

	if shouldFetch {
		s.spawn(s.FetchChats)
	}
}

func (s *ChatListState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatListState) FetchChats(ctx context.Context) {
	s.fetch(ctx, nil)
}

// fetch skips the call when ticker is set and no longer the running ticker.
func (s *ChatListState) fetch(ctx context.Context, ticker chan struct{}) {
	s.mu.Lock()
	if s.closed || (ticker != nil && ticker != s.tickerStop) {
		s.mu.Unlock()
		return
	}
	if s.userID == "" {
		msg := ErrUserIDRequired
		s.err = &msg
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	gen := s.generation
	userID, chatType := s.userID, s.chatType
	identityCtx := s.identityCtx
	s.loading = true
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(identityCtx, cancel)
	defer stop()

	result := s.fetcher.FetchChatList(callCtx, userID, chatType, model.ChatListOptions{Limit: s.opts.PageSize})

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		slog.Debug("Discarding stale chat list result", "userID", userID, "chatType", chatType)
		return
	}

	if result.Error != "" {
		msg := result.Error
		s.err = &msg
	} else {
		s.items = result.Chats
		if s.items == nil {
			s.items = []model.ChatListItem{}
		}
		s.hasMore = result.HasMore
		s.err = nil
	}
	s.loading = false
	s.initialized = true
	s.startTickerLocked()
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *ChatListState) RefreshChats(ctx context.Context) {
	s.FetchChats(ctx)
}

// MarkChatAsRead zeroes the local unread count of the chat after the remote
// call succeeds. The list is not re-fetched.
func (s *ChatListState) MarkChatAsRead(ctx context.Context, kind model.ChatKind, chatID string) bool {
	userID, gen, ok := s.identityForMutation()
	if !ok {
		return false
	}

	done, err := s.fetcher.MarkChatAsRead(ctx, userID, kind, chatID)
	if err != nil || !done {
		slog.Error("Failed to mark chat as read", "error", err, "userID", userID, "chatType", kind, "chatID", chatID)
		return false
	}

	target := model.ChatKey{Kind: kind, ID: chatID}
	s.applyIfCurrent(gen, func() {
		next := make([]model.ChatListItem, len(s.items))
		for i, item := range s.items {
			if item.Key() == target {
				next[i] = item.WithUnreadCount(0)
				continue
			}
			next[i] = item
		}
		s.items = next
	})
	return true
}

// DeleteChat removes the chat locally after the remote call succeeds. The
// order of the remaining chats is kept.
func (s *ChatListState) DeleteChat(ctx context.Context, kind model.ChatKind, chatID string) bool {
	userID, gen, ok := s.identityForMutation()
	if !ok {
		return false
	}

	done, err := s.fetcher.DeleteChat(ctx, userID, kind, chatID)
	if err != nil || !done {
		slog.Error("Failed to delete chat", "error", err, "userID", userID, "chatType", kind, "chatID", chatID)
		return false
	}

	target := model.ChatKey{Kind: kind, ID: chatID}
	s.applyIfCurrent(gen, func() {
		next := make([]model.ChatListItem, 0, len(s.items))
		for _, item := range s.items {
			if item.Key() != target {
				next = append(next, item)
			}
		}
		s.items = next
	})
	return true
}

// ClearChats resets the list to its uninitialized state. Pending results
// are dropped and the refresh ticker stops until the next fetch lands. With
// auto fetch on, a started state fetches again.
func (s *ChatListState) ClearChats() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	shouldFetch := s.opts.AutoFetch && s.started
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if shouldFetch {
		s.spawn(s.FetchChats)
	}
}

// SetIdentity switches the viewer or the list type. The old list is cleared
// before anything is fetched for the new identity.
func (s *ChatListState) SetIdentity(userID string, chatType model.ChatType) {
	chatType = chatType.OrDefault()

	s.mu.Lock()
	if s.closed || (userID == s.userID && chatType == s.chatType) {
		s.mu.Unlock()
		return
	}

	s.userID = userID
	s.chatType = chatType
	s.resetLocked()
	shouldFetch := s.opts.AutoFetch && s.started
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if shouldFetch {
		s.spawn(s.FetchChats)
	}
}

// Close cancels in-flight work, stops the refresh ticker and unsubscribes.
// It waits for background fetches to return.
func (s *ChatListState) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	s.stopTickerLocked()
	if s.started && s.opts.Bus != nil {
		for _, t := range websocket.ChatActivityEvents {
			s.opts.Bus.Unsubscribe(t, s.listener)
		}
	}
	s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.rootCancel()
	s.wg.Wait()
}

func (s *ChatListState) onEvent(event websocket.Event) {
	s.mu.Lock()
	relevant := !s.closed && event.AddressedTo(s.userID)
	s.mu.Unlock()
	if !relevant {
		return
	}

	if s.debounce != nil {
		s.debounce.Trigger()
		return
	}
	s.spawn(s.RefreshChats)
}

func (s *ChatListState) identityForMutation() (string, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", 0, false
	}
	if s.userID == "" {
		slog.Warn("Chat mutation without a user")
		return "", 0, false
	}
	return s.userID, s.generation, true
}

func (s *ChatListState) applyIfCurrent(gen uint64, apply func()) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	apply()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// spawn runs fn in the background unless the state is closed.
func (s *ChatListState) spawn(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	ctx := s.rootCtx
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func (s *ChatListState) startTickerLocked() {
	if s.opts.RefreshInterval <= 0 || s.tickerStop != nil || s.closed {
		return
	}

	stop := make(chan struct{})
	s.tickerStop = stop
	s.wg.Add(1)
	ctx := s.rootCtx

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.fetch(ctx, stop)
			case <-stop:
				return
			}
		}
	}()
}

func (s *ChatListState) stopTickerLocked() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}

func (s *ChatListState) resetLocked() {
	s.generation++
	s.identityCancel()
	s.identityCtx, s.identityCancel = context.WithCancel(s.rootCtx)
	s.stopTickerLocked()

	s.items = []model.ChatListItem{}
	s.err = nil
	s.hasMore = false
	s.loading = false
	s.initialized = false
}

func (s *ChatListState) snapshotLocked() Snapshot {
	s.seq++
	var errCopy *string
	if s.err != nil {
		e := *s.err
		errCopy = &e
	}
	return Snapshot{
		UserID:      s.userID,
		ChatType:    s.chatType,
		Items:       s.items,
		Loading:     s.loading,
		Error:       errCopy,
		HasMore:     s.hasMore,
		Initialized: s.initialized,
		seq:         s.seq,
	}
}

// notify delivers snapshots in the order they were taken and skips any that
// were overtaken by a newer one.
func (s *ChatListState) notify(snap Snapshot) {
	if s.opts.OnChange == nil {
		return
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.seq <= s.lastNotified {
		return
	}
	s.lastNotified = snap.seq
	s.opts.OnChange(snap)
}
