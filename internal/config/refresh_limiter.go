package config

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	refreshBurst      = 3
	refreshSweepEvery = time.Minute
)

// RefreshLimiter throttles client-driven websocket refreshes. Keys are
// "<userID>:<action>"; each key gets its own token bucket.
type RefreshLimiter struct {
	mu      sync.Mutex
	buckets map[string]*refreshBucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type refreshBucket struct {
	limiter *rate.Limiter
	touched time.Time
}

func NewRefreshLimiter(cfg *AppConfig) *RefreshLimiter {
	l := newRefreshLimiter(time.Duration(cfg.WSRefreshRateSeconds)*time.Second, time.Now)
	go l.sweepLoop()
	return l
}

func newRefreshLimiter(interval time.Duration, now func() time.Time) *RefreshLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &RefreshLimiter{
		buckets: make(map[string]*refreshBucket),
		every:   rate.Every(interval),
		burst:   refreshBurst,
		idle:    interval*refreshBurst + 5*time.Second,
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Allow spends one token for key. When the bucket is empty it reports how
// long until the next token and spends nothing.
func (l *RefreshLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &refreshBucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.touched = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *RefreshLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RefreshLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *RefreshLimiter) sweepLoop() {
	ticker := time.NewTicker(refreshSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep(l.now())
		}
	}
}

// sweep drops buckets that have been idle long enough to be full again.
func (l *RefreshLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.touched) > l.idle {
			delete(l.buckets, key)
		}
	}
}
