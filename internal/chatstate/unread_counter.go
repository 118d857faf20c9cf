package chatstate

import (
	"ChatSyncAPI/internal/websocket"
	"context"
	"sync"
	"time"
)

type UnreadCountFetcher interface {
	GetTotalUnreadCount(ctx context.Context, userID string) int
}

type UnreadSnapshot struct {
	UserID      string `json:"user_id"`
	UnreadCount int    `json:"unread_count"`
	Loading     bool   `json:"loading"`

	seq uint64
}

type UnreadOptions struct {
	Bus      websocket.EventBus
	Debounce time.Duration
	OnChange func(UnreadSnapshot)
}

// UnreadCounter keeps the total unread count of one user current. It holds
// a single listener for its whole life, so refreshes never resubscribe.
type UnreadCounter struct {
	fetcher UnreadCountFetcher
	opts    UnreadOptions

	mu          sync.Mutex
	userID      string
	unreadCount int
	loading     bool
	generation  uint64
	subscribed  bool
	closed      bool
	seq         uint64

	rootCtx    context.Context
	rootCancel context.CancelFunc
	listener   *websocket.Listener
	debounce   *debouncer
	wg         sync.WaitGroup

	notifyMu     sync.Mutex
	lastNotified uint64
}

func NewUnreadCounter(fetcher UnreadCountFetcher, opts UnreadOptions) *UnreadCounter {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	c := &UnreadCounter{
		fetcher:    fetcher,
		opts:       opts,
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
	c.listener = websocket.NewListener(c.onEvent)
	if opts.Debounce > 0 {
		c.debounce = newDebouncer(opts.Debounce, func() {
			c.spawnRefresh()
		})
	}
	return c
}

func (c *UnreadCounter) Snapshot() UnreadSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetUserID subscribes for a non-empty user and loads the initial count. An
// empty user resets the counter and drops the subscriptions. Repeating the
// current user does nothing.
func (c *UnreadCounter) SetUserID(userID string) {
	c.mu.Lock()
	if c.closed || userID == c.userID {
		c.mu.Unlock()
		return
	}

	c.userID = userID
	c.generation++
	c.unreadCount = 0
	c.loading = false

	if userID == "" {
		c.unsubscribeLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}

	c.subscribeLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.spawnRefresh()
}

// RefreshUnreadCount reloads the total. A result that arrives after the
// user changed or the counter closed is dropped.
func (c *UnreadCounter) RefreshUnreadCount(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.userID == "" {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	userID := c.userID
	c.loading = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	total := c.fetcher.GetTotalUnreadCount(ctx, userID)

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.unreadCount = total
	c.loading = false
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *UnreadCounter) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.unsubscribeLocked()
	c.mu.Unlock()

	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.rootCancel()
	c.wg.Wait()
}

func (c *UnreadCounter) onEvent(event websocket.Event) {
	c.mu.Lock()
	relevant := !c.closed && event.AddressedTo(c.userID)
	c.mu.Unlock()
	if !relevant {
		return
	}

	if c.debounce != nil {
		c.debounce.Trigger()
		return
	}
	c.spawnRefresh()
}

func (c *UnreadCounter) spawnRefresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	ctx := c.rootCtx
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.RefreshUnreadCount(ctx)
	}()
}

func (c *UnreadCounter) subscribeLocked() {
	if c.subscribed || c.opts.Bus == nil {
		return
	}
	for _, t := range websocket.ChatActivityEvents {
		c.opts.Bus.Subscribe(t, c.listener)
	}
	c.subscribed = true
}

func (c *UnreadCounter) unsubscribeLocked() {
	if !c.subscribed {
		return
	}
	for _, t := range websocket.ChatActivityEvents {
		c.opts.Bus.Unsubscribe(t, c.listener)
	}
	c.subscribed = false
}

func (c *UnreadCounter) snapshotLocked() UnreadSnapshot {
	c.seq++
	return UnreadSnapshot{
		UserID:      c.userID,
		UnreadCount: c.unreadCount,
		Loading:     c.loading,
		seq:         c.seq,
	}
}

func (c *UnreadCounter) notify(snap UnreadSnapshot) {
	if c.opts.OnChange == nil {
		return
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.seq <= c.lastNotified {
		return
	}
	c.lastNotified = snap.seq
	c.opts.OnChange(snap)
}
