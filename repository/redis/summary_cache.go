package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/todomore/repository"
)

type summaryCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewSummaryCache creates a Redis-backed dashboard summary cache.
func NewSummaryCache(client *redislib.Client, ttl time.Duration) repository.SummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &summaryCache{
		client: client,
		prefix: "summary:",
		ttl:    ttl,
	}
}

func (c *summaryCache) Get(ctx context.Context, userID string) ([]byte, bool, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if err == redislib.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return result, true, nil
}

func (c *summaryCache) Set(ctx context.Context, userID string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, c.key(userID), payload, ttl).Err()
}

func (c *summaryCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *summaryCache) key(userID string) string {
	return fmt.Sprintf("%s%s", c.prefix, userID)
}
