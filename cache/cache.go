package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Store persists the set of responded post IDs.
type Store interface {
	SaveRespondedPosts(ctx context.Context, postIDs []string) error
	LoadRespondedPosts(ctx context.Context) ([]string, error)
}

type entry struct {
	postID     string
	insertedAt time.Time
}

// DedupCache is a bounded, time-expiring record of post IDs that have already
// been replied to. Entries older than the TTL are treated as absent; when the
// cache is full, insertion evicts expired entries first, then the entry with
// the earliest insertion time.
type DedupCache struct {
	capacity int
	ttl      time.Duration
	clock    clockwork.Clock

	entries map[string]*entry
	order   []*entry // insertion order, oldest first
}

// New creates an empty cache with the given capacity and TTL.
func New(capacity int, ttl time.Duration, clock clockwork.Clock) *DedupCache {
	return &DedupCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		entries:  make(map[string]*entry),
	}
}

// Load rebuilds a cache from the store. Rehydrated entries get insertedAt set
// to load time, which restarts their TTL clock. If the store is unreadable, a
// fresh empty cache is returned rather than an error.
func Load(ctx context.Context, store Store, capacity int, ttl time.Duration, clock clockwork.Clock) *DedupCache {
	c := New(capacity, ttl, clock)

	postIDs, err := store.LoadRespondedPosts(ctx)
	if err != nil {
		slog.Warn("failed to load response cache, starting empty", "error", err)
		return c
	}

	for _, id := range postIDs {
		c.Record(id)
	}
	slog.Info("response cache loaded", "entries", c.Len())
	return c
}

// Contains reports whether postID was recorded and has not yet expired.
func (c *DedupCache) Contains(postID string) bool {
	e, ok := c.entries[postID]
	if !ok {
		return false
	}
	return c.clock.Since(e.insertedAt) < c.ttl
}

// Record inserts postID with the current time, refreshing it if already
// present. When the cache is at capacity, an expired or oldest entry is
// evicted first.
func (c *DedupCache) Record(postID string) {
	now := c.clock.Now()

	if e, ok := c.entries[postID]; ok {
		e.insertedAt = now
		c.moveToBack(e)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOne()
	}

	e := &entry{postID: postID, insertedAt: now}
	c.entries[postID] = e
	c.order = append(c.order, e)
}

// evictOne removes expired entries if any exist, otherwise the oldest entry.
// The order slice is oldest-first, so expired entries cluster at the front.
func (c *DedupCache) evictOne() {
	evicted := false
	for len(c.order) > 0 && c.clock.Since(c.order[0].insertedAt) >= c.ttl {
		c.removeFront()
		evicted = true
	}
	if !evicted && len(c.order) > 0 {
		c.removeFront()
	}
}

func (c *DedupCache) removeFront() {
	e := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, e.postID)
}

func (c *DedupCache) moveToBack(e *entry) {
	for i, o := range c.order {
		if o == e {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, e)
}

// Len returns the number of non-expired entries.
func (c *DedupCache) Len() int {
	n := 0
	for _, e := range c.entries {
		if c.clock.Since(e.insertedAt) < c.ttl {
			n++
		}
	}
	return n
}

// Snapshot returns the non-expired post IDs in insertion order.
func (c *DedupCache) Snapshot() []string {
	ids := make([]string, 0, len(c.order))
	for _, e := range c.order {
		if c.clock.Since(e.insertedAt) < c.ttl {
			ids = append(ids, e.postID)
		}
	}
	return ids
}

// Persist writes the current non-expired post IDs to the store, replacing
// whatever was persisted before.
func (c *DedupCache) Persist(ctx context.Context, store Store) error {
	return store.SaveRespondedPosts(ctx, c.Snapshot())
}
