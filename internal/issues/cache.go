package issues

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of issue states remembered per run.
const DefaultCacheSize = 1024

// CachedTracker memoizes definite answers from another tracker. Lookup
// errors and unknown states are never cached so a transient failure does
// not stick for the rest of the run.
type CachedTracker struct {
	next  Tracker
	cache *lru.Cache[string, State]
}

// NewCachedTracker wraps next with an LRU of the given size.
func NewCachedTracker(next Tracker, size int) (*CachedTracker, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, State](size)
	if err != nil {
		return nil, err
	}
	return &CachedTracker{next: next, cache: cache}, nil
}

// State implements Tracker.
func (c *CachedTracker) State(ctx context.Context, link string) (State, error) {
	key := canonicalLink(link)
	if state, ok := c.cache.Get(key); ok {
		return state, nil
	}
	state, err := c.next.State(ctx, link)
	if err != nil {
		return state, err
	}
	if state != StateUnknown {
		c.cache.Add(key, state)
	}
	return state, nil
}

// Len returns the number of cached entries.
func (c *CachedTracker) Len() int {
	return c.cache.Len()
}
