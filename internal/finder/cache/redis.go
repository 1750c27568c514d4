package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
	"github.com/redditdl/userfinder/internal/types"
	"go.uber.org/zap"
)

// PostCountKeyPrefix identifies post count entries in Redis.
const PostCountKeyPrefix = "userfinder:post_count:"

// Redis tracks post counts in Redis so several finder instances can share them.
type Redis struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis backed post count cache.
func NewRedis(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger.Named("post_count_cache"),
	}
}

// GetPostCount retrieves a user's cached post count.
// Returns the count and true if found, or 0 and false if not cached.
func (r *Redis) GetPostCount(ctx context.Context, name string) (int, bool, error) {
	key := PostCountKeyPrefix + types.FoldKey(name)

	countStr, err := r.client.Do(ctx, r.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, false, nil
		}

		r.logger.Warn("Failed to get post count from Redis",
			zap.String("user", name),
			zap.Error(err))

		return 0, false, fmt.Errorf("failed to get post count for %s: %w", name, err)
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		r.logger.Warn("Invalid post count value in Redis",
			zap.String("user", name),
			zap.String("value", countStr),
			zap.Error(err))

		return 0, false, fmt.Errorf("invalid post count value for %s: %w", name, err)
	}

	r.logger.Debug("Retrieved post count from cache",
		zap.String("user", name),
		zap.Int("postCount", count))

	return count, true, nil
}

// SetPostCount caches a user's post count.
func (r *Redis) SetPostCount(ctx context.Context, name string, count int) error {
	key := PostCountKeyPrefix + types.FoldKey(name)

	err := r.client.Do(ctx, r.client.B().Set().Key(key).Value(strconv.Itoa(count)).Ex(r.ttl).Build()).Error()
	if err != nil {
		r.logger.Warn("Failed to set post count in Redis",
			zap.String("user", name),
			zap.Int("postCount", count),
			zap.Error(err))

		return fmt.Errorf("failed to set post count for %s: %w", name, err)
	}

	return nil
}
