package cache_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/redditdl/userfinder/internal/finder/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupRedis(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()

	// Start miniredis server
	mr := miniredis.RunT(t)

	// Create Redis client
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return cache.NewRedis(client, time.Hour, zaptest.NewLogger(t)), mr
}

func TestRedis_PostCount(t *testing.T) {
	t.Parallel()
	postCounts, mr := setupRedis(t)
	ctx := t.Context()

	_, found, err := postCounts.GetPostCount(ctx, "someone")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, postCounts.SetPostCount(ctx, "SomeOne", 42))

	count, found, err := postCounts.GetPostCount(ctx, "someone")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, count)

	// Entries expire after the configured TTL
	mr.FastForward(2 * time.Hour)
	_, found, err = postCounts.GetPostCount(ctx, "someone")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_InvalidValue(t *testing.T) {
	t.Parallel()
	postCounts, mr := setupRedis(t)

	require.NoError(t, mr.Set(cache.PostCountKeyPrefix+"someone", "many"))

	_, found, err := postCounts.GetPostCount(t.Context(), "someone")
	require.Error(t, err)
	assert.False(t, found)
}

func TestMemory_PostCount(t *testing.T) {
	t.Parallel()
	postCounts := cache.NewMemory(2, time.Hour, zaptest.NewLogger(t))
	ctx := t.Context()

	require.NoError(t, postCounts.SetPostCount(ctx, "u1", 1))
	require.NoError(t, postCounts.SetPostCount(ctx, "u2", 2))

	count, found, err := postCounts.GetPostCount(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, count)

	// Adding a third entry evicts the least recently used one
	require.NoError(t, postCounts.SetPostCount(ctx, "u3", 3))

	_, found, err = postCounts.GetPostCount(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = postCounts.GetPostCount(ctx, "u3")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()
	postCounts := cache.NewMemory(10, 10*time.Millisecond, zaptest.NewLogger(t))
	ctx := t.Context()

	require.NoError(t, postCounts.SetPostCount(ctx, "u1", 1))

	assert.Eventually(t, func() bool {
		_, found, _ := postCounts.GetPostCount(ctx, "u1")
		return !found
	}, time.Second, 5*time.Millisecond)
}
