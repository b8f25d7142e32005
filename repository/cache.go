package repository

import (
	"context"
	"time"
)

// SummaryCache stores serialized per-user dashboard summaries.
type SummaryCache interface {
	Get(ctx context.Context, userID string) ([]byte, bool, error)
	Set(ctx context.Context, userID string, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}
