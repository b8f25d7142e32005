package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/todomore/repository"
)

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

type summaryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewSummaryCache returns a process-local SummaryCache with TTL expiry.
func NewSummaryCache() repository.SummaryCache {
	return &summaryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *summaryCache) Get(_ context.Context, userID string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, userID)
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (c *summaryCache) Set(_ context.Context, userID string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[userID] = entry
	return nil
}

func (c *summaryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}
