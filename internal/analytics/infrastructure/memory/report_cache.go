package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"admin-dashboard/internal/analytics/application"
	"admin-dashboard/internal/analytics/domain/statistic"
)

type cachedReport struct {
	report   application.Report
	storedAt time.Time
}

// ReportCache is an in-memory dashboard report cache.
type ReportCache struct {
	mu    sync.RWMutex
	data  map[string]cachedReport
	clock statistic.Clock
	limit int
}

// NewReportCache constructs a cache holding at most limit reports.
func NewReportCache(clock statistic.Clock, limit int) *ReportCache {
	if clock == nil {
		clock = statistic.SystemClock{}
	}
	if limit <= 0 {
		limit = 64
	}
	return &ReportCache{
		data:  make(map[string]cachedReport),
		clock: clock,
		limit: limit,
	}
}

// Get returns a report stored less than maxAge ago.
func (c *ReportCache) Get(ctx context.Context, key string, maxAge time.Duration) (*application.Report, bool) {
	_ = ctx
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(entry.storedAt) >= maxAge {
		return nil, false
	}
	report := entry.report
	return &report, true
}

// Save stores a report, evicting the oldest entry when full.
func (c *ReportCache) Save(ctx context.Context, key string, report application.Report) error {
	_ = ctx
	if key == "" {
		return errors.New("report cache: empty key")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; !exists && len(c.data) >= c.limit {
		c.evictOldest()
	}
	c.data[key] = cachedReport{report: report, storedAt: c.clock.Now()}
	return nil
}

// Len returns the number of cached reports.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *ReportCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.data {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	delete(c.data, oldestKey)
}
