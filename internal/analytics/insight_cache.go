package analytics

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	cacheShards       = 16
	DefaultInsightTTL = 24 * time.Hour
)

type cachedInsight struct {
	insight   Insight
	createdAt time.Time
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]cachedInsight
}

// InsightCache keeps at most one generated insight per owner. Entries expire
// TTL after creation; nothing survives a restart.
type InsightCache struct {
	ttl    time.Duration
	now    func() time.Time
	shards [cacheShards]cacheShard
}

// NewInsightCache builds an empty cache. A non-positive ttl falls back to
// DefaultInsightTTL and a nil clock to time.Now.
func NewInsightCache(ttl time.Duration, now func() time.Time) *InsightCache {
	if ttl <= 0 {
		ttl = DefaultInsightTTL
	}
	if now == nil {
		now = time.Now
	}
	c := &InsightCache{ttl: ttl, now: now}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]cachedInsight)
	}
	return c
}

func (c *InsightCache) shard(ownerID string) *cacheShard {
	return &c.shards[xxhash.Sum64String(ownerID)%cacheShards]
}

func (c *InsightCache) fresh(entry cachedInsight, now time.Time) bool {
	return now.Before(entry.createdAt.Add(c.ttl))
}

// Get returns the owner's insight while it is still fresh.
func (c *InsightCache) Get(ownerID string) (Insight, bool) {
	s := c.shard(ownerID)
	s.mu.RLock()
	entry, ok := s.entries[ownerID]
	s.mu.RUnlock()
	if !ok || !c.fresh(entry, c.now()) {
		return Insight{}, false
	}
	return entry.insight, true
}

// Put overwrites the owner's entry and drops expired entries in the same shard.
func (c *InsightCache) Put(ownerID string, insight Insight) {
	now := c.now()
	s := c.shard(ownerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if !c.fresh(entry, now) {
			delete(s.entries, key)
		}
	}
	s.entries[ownerID] = cachedInsight{insight: insight, createdAt: now}
}

// Len counts stored entries, including ones that expired but were not yet dropped.
func (c *InsightCache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
