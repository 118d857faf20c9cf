package health

import (
	"context"
	"sync"
	"time"
)

const (
	maxQuerySamples = 100
	maxErrors       = 10
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type Performance struct {
	QueryCount       int64   `json:"query_count"`
	AverageQueryTime float64 `json:"average_query_time_ms"`
	LastQueryTime    float64 `json:"last_query_time_ms"`
}

type Status struct {
	IsHealthy    bool              `json:"is_healthy"`
	Components   map[string]string `json:"components"`
	LastSyncTime *time.Time        `json:"last_sync_time,omitempty"`
	SyncErrors   []string          `json:"sync_errors"`
	Performance  Performance       `json:"performance"`
}

// Monitor keeps rolling timings and recent errors of gateway calls. It is
// created once at startup and shared by the services that report into it.
type Monitor struct {
	mu           sync.Mutex
	queryCount   int64
	queryTimes   []time.Duration
	syncErrors   []string
	lastSyncTime *time.Time
	checks       map[string]Check
	now          func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{
		checks: make(map[string]Check),
		now:    time.Now,
	}
}

func (m *Monitor) AddCheck(name string, check Check) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

func (m *Monitor) RecordQuery(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryCount++
	m.queryTimes = append(m.queryTimes, d)
	if len(m.queryTimes) > maxQuerySamples {
		m.queryTimes = m.queryTimes[len(m.queryTimes)-maxQuerySamples:]
	}
}

func (m *Monitor) RecordError(err error) {
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncErrors = append(m.syncErrors, err.Error())
	if len(m.syncErrors) > maxErrors {
		m.syncErrors = m.syncErrors[len(m.syncErrors)-maxErrors:]
	}
}

func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now()
	m.lastSyncTime = &t
}

// Track records the duration since start and the outcome of one gateway call.
func (m *Monitor) Track(start time.Time, err error) {
	m.RecordQuery(m.now().Sub(start))
	if err != nil {
		m.RecordError(err)
		return
	}
	m.RecordSuccess()
}

// Status runs every registered check and reports the monitor as healthy when
// all checks pass and no error was recorded since the last Reset.
func (m *Monitor) Status(ctx context.Context) Status {
	m.mu.Lock()
	checks := make(map[string]Check, len(m.checks))
	for name, c := range m.checks {
		checks[name] = c
	}
	status := Status{
		LastSyncTime: m.lastSyncTime,
		SyncErrors:   append([]string{}, m.syncErrors...),
		Performance:  m.performanceLocked(),
	}
	m.mu.Unlock()

	status.Components = make(map[string]string, len(checks))
	healthy := len(status.SyncErrors) == 0
	for name, check := range checks {
		if err := check(ctx); err != nil {
			status.Components[name] = err.Error()
			healthy = false
			continue
		}
		status.Components[name] = "ok"
	}
	status.IsHealthy = healthy

	return status
}

func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queryCount = 0
	m.queryTimes = nil
	m.syncErrors = nil
	m.lastSyncTime = nil
}

func (m *Monitor) performanceLocked() Performance {
	p := Performance{QueryCount: m.queryCount}
	if len(m.queryTimes) == 0 {
		return p
	}

	var total time.Duration
	for _, d := range m.queryTimes {
		total += d
	}
	p.AverageQueryTime = msFloat(total) / float64(len(m.queryTimes))
	p.LastQueryTime = msFloat(m.queryTimes[len(m.queryTimes)-1])
	return p
}

func msFloat(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
