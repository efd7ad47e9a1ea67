package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
)

// CachedLoader memoizes tables by source identity so a session loads each
// source once. Entries live until invalidated, or until the TTL elapses
// when one is configured; there is no background refresh.
type CachedLoader struct {
	inner   Loader
	clock   clockwork.Clock
	ttl     time.Duration
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	table    domain.Table
	cachedAt time.Time
}

var _ Loader = (*CachedLoader)(nil)

// NewCachedLoader wraps inner with a source-keyed cache. A ttl of zero
// means entries never go stale on their own.
func NewCachedLoader(inner Loader, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedLoader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedLoader{
		inner:   inner,
		clock:   clock,
		ttl:     ttl,
		metrics: metrics,
		entries: make(map[string]cacheEntry),
	}
}

// Load returns the cached table for source when a fresh entry exists,
// otherwise delegates to the inner loader and caches the result. A failed
// reload leaves any previous entry in place and surfaces the error.
func (c *CachedLoader) Load(ctx context.Context, source string) (domain.Table, error) {
	c.mu.Lock()
	entry, ok := c.entries[source]
	c.mu.Unlock()

	switch {
	case ok && !c.stale(entry):
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return entry.table, nil
	case ok:
		c.metrics.CacheLookups.WithLabelValues("stale").Inc()
	default:
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	table, err := c.inner.Load(ctx, source)
	if err != nil {
		return domain.Table{}, err
	}

	c.mu.Lock()
	c.entries[source] = cacheEntry{table: table, cachedAt: c.clock.Now()}
	c.mu.Unlock()

	return table, nil
}

// Invalidate drops the entry for one source; the next Load re-reads it.
func (c *CachedLoader) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, source)
}

// InvalidateAll drops every cached table.
func (c *CachedLoader) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *CachedLoader) stale(entry cacheEntry) bool {
	return c.ttl > 0 && c.clock.Since(entry.cachedAt) >= c.ttl
}
