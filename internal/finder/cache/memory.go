// Package cache provides post count caches for the user finder. Counting a
// user's posts pages through their whole history, so results are kept for
// a while and reused across requests.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redditdl/userfinder/internal/types"
	"go.uber.org/zap"
)

const (
	// DefaultTTL defines how long post counts remain cached.
	DefaultTTL = 6 * time.Hour
	// DefaultSize is the default number of users kept by the memory cache.
	DefaultSize = 1024
)

// Memory is an in-process post count cache with LRU eviction and expiry.
type Memory struct {
	lru    *expirable.LRU[string, int]
	logger *zap.Logger
}

// NewMemory creates a memory cache holding up to size entries for ttl.
func NewMemory(size int, ttl time.Duration, logger *zap.Logger) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		lru:    expirable.NewLRU[string, int](size, nil, ttl),
		logger: logger.Named("post_count_cache"),
	}
}

// GetPostCount returns the cached count and true when present.
func (m *Memory) GetPostCount(_ context.Context, name string) (int, bool, error) {
	count, ok := m.lru.Get(types.FoldKey(name))
	if ok {
		m.logger.Debug("Retrieved post count from cache",
			zap.String("user", name),
			zap.Int("postCount", count))
	}
	return count, ok, nil
}

// SetPostCount stores a user's post count.
func (m *Memory) SetPostCount(_ context.Context, name string, count int) error {
	m.lru.Add(types.FoldKey(name), count)
	return nil
}
