package setup_test

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redditdl/userfinder/internal/finder/cache"
	"github.com/redditdl/userfinder/internal/setup"
	"github.com/redditdl/userfinder/internal/setup/config"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	dir := t.TempDir()
	cfg.Debug.LogDir = filepath.Join(dir, "logs")
	cfg.Settings.Path = filepath.Join(dir, "settings.db")
	return cfg
}

func TestInitializeWithConfig(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t)
	cfg.Finder.EnrichKarma = true
	cfg.Reddit.ContentLimit = 10

	app, err := setup.InitializeWithConfig(t.Context(), cfg, filepath.Dir(cfg.Settings.Path))
	require.NoError(t, err)
	defer app.Cleanup()

	assert.IsType(t, &cache.Memory{}, app.Cache)
	assert.Nil(t, app.RedisManager)

	require.NoError(t, app.Settings.SetPostLimit(75))
	require.NoError(t, app.Settings.SetTopTimeWindow(types.TimeWindowDay))

	opts := app.FinderOptions()
	assert.True(t, opts.EnrichKarma)
	assert.Equal(t, 10, opts.ContentLimit)
	assert.Equal(t, 75, opts.PostLimit)
	assert.Equal(t, types.TimeWindowDay, opts.TimeWindow)

	p := app.NewPanel(t.Context(), nil)
	assert.Empty(t, p.Users())
	require.NoError(t, p.Close())
}

func TestInitializeWithConfig_RedisCache(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)

	cfg := newConfig(t)
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Redis.Host = server.Host()
	cfg.Redis.Port = port

	app, err := setup.InitializeWithConfig(t.Context(), cfg, ".")
	require.NoError(t, err)
	defer app.Cleanup()

	require.NotNil(t, app.RedisManager)
	require.NoError(t, app.Cache.SetPostCount(t.Context(), "Someone", 12))

	count, ok, err := app.Cache.GetPostCount(t.Context(), "someone")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, count)
}

func TestInitializeWithConfig_NoCache(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t)
	cfg.Cache.Backend = config.CacheBackendNone

	app, err := setup.InitializeWithConfig(t.Context(), cfg, ".")
	require.NoError(t, err)
	defer app.Cleanup()

	assert.Nil(t, app.Cache)
}
