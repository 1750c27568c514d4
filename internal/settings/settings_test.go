package settings_test

import (
	"path/filepath"
	"testing"

	"github.com/redditdl/userfinder/internal/settings"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openStore(t *testing.T, path string) *settings.Store {
	t.Helper()

	store, err := settings.Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestStore_GetSet(t *testing.T) {
	t.Parallel()
	store := openStore(t, filepath.Join(t.TempDir(), "settings.db"))

	var missing string
	found, err := store.Get("missing", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("list", []string{"a", "b"}))

	var list []string
	found, err = store.Get("list", &list)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, list)

	var wrong int
	_, err = store.Get("list", &wrong)
	require.ErrorIs(t, err, settings.ErrInvalidValue)
}

func TestStore_FlushPersists(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "settings.db")

	store, err := settings.Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, store.Set("flushed", 1))
	require.NoError(t, store.Flush())
	require.NoError(t, store.Set("flushed", 2))
	require.NoError(t, store.Set("closed", true))
	require.NoError(t, store.Close())

	// Setting after close fails
	require.ErrorIs(t, store.Set("late", 1), settings.ErrStoreClosed)

	reopened := openStore(t, path)
	assert.Equal(t, []string{"closed", "flushed"}, reopened.Keys())

	var count int
	found, err := reopened.Get("flushed", &count)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, count, "close flushes pending changes")
}

func TestStore_UnflushedChangesAreLost(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.db")

	first := openStore(t, path)
	require.NoError(t, first.Set("key", "saved"))
	require.NoError(t, first.Flush())
	require.NoError(t, first.Set("key", "pending"))

	// A second connection only sees flushed values
	second := openStore(t, path)
	var value string
	found, err := second.Get("key", &value)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "saved", value)
}

func TestSettings_Defaults(t *testing.T) {
	t.Parallel()
	s := settings.New(openStore(t, filepath.Join(t.TempDir(), "settings.db")), zaptest.NewLogger(t))

	assert.Empty(t, s.Watchlist())
	assert.Empty(t, s.Blacklist())
	assert.Equal(t, types.SortMethodName, s.SortMethod())
	assert.Equal(t, types.SortOrderAsc, s.SortOrder())
	assert.Equal(t, 110, s.PreviewSize())
	assert.Equal(t, "Default", s.AutoAddList())
	assert.Equal(t, types.TimeWindowWeek, s.TopTimeWindow())
	assert.False(t, s.FilterByScore())
	assert.Equal(t, 1000, s.ScoreLimit())
	assert.Equal(t, 50, s.PostLimit())
	assert.Equal(t, settings.Layout{}, s.Layout())
	assert.Nil(t, s.UpdateDialogGeometry())
	assert.Empty(t, s.DoNotNotifyVersion())
}

func TestSettings_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.db")
	logger := zaptest.NewLogger(t)

	store, err := settings.Open(path, logger)
	require.NoError(t, err)
	s := settings.New(store, logger)

	layout := settings.Layout{
		Geometry:  []byte{0x01, 0xd9, 0xd0},
		Splitters: [][]byte{{0x00}, {0xff, 0x10}, nil},
	}

	require.NoError(t, s.SetWatchlist([]string{"golang", "rust"}))
	require.NoError(t, s.SetBlacklist([]string{"AutoModerator"}))
	require.NoError(t, s.SetSortMethod(types.SortMethodKarma))
	require.NoError(t, s.SetSortOrder(types.SortOrderDesc))
	require.NoError(t, s.SetPreviewSize(0))
	require.NoError(t, s.SetAutoAddList("Found"))
	require.NoError(t, s.SetTopTimeWindow(types.TimeWindowAll))
	require.NoError(t, s.SetFilterByScore(true))
	require.NoError(t, s.SetScoreLimit(250))
	require.NoError(t, s.SetPostLimit(5000))
	require.NoError(t, s.SetLayout(layout))
	require.NoError(t, s.SetUpdateDialogGeometry([]byte("geom")))
	require.NoError(t, s.SetDoNotNotifyVersion("v3.1.0"))
	require.NoError(t, store.Close())

	reloaded := settings.New(openStore(t, path), logger)

	assert.Equal(t, []string{"golang", "rust"}, reloaded.Watchlist())
	assert.Equal(t, []string{"AutoModerator"}, reloaded.Blacklist())
	assert.Equal(t, types.SortMethodKarma, reloaded.SortMethod())
	assert.Equal(t, types.SortOrderDesc, reloaded.SortOrder())
	assert.Equal(t, 0, reloaded.PreviewSize())
	assert.Equal(t, "Found", reloaded.AutoAddList())
	assert.Equal(t, types.TimeWindowAll, reloaded.TopTimeWindow())
	assert.True(t, reloaded.FilterByScore())
	assert.Equal(t, 250, reloaded.ScoreLimit())
	assert.Equal(t, settings.MaxPostLimit, reloaded.PostLimit())
	assert.Equal(t, layout, reloaded.Layout())
	assert.Equal(t, []byte("geom"), reloaded.UpdateDialogGeometry())
	assert.Equal(t, "v3.1.0", reloaded.DoNotNotifyVersion())
}

func TestSettings_InvalidValues(t *testing.T) {
	t.Parallel()
	store := openStore(t, filepath.Join(t.TempDir(), "settings.db"))
	s := settings.New(store, zaptest.NewLogger(t))

	require.ErrorIs(t, s.SetPreviewSize(100), settings.ErrInvalidPreviewSize)

	// Unknown or mistyped persisted values fall back to defaults
	require.NoError(t, store.Set(settings.KeySortMethod, "SIZE"))
	require.NoError(t, store.Set(settings.KeySortOrder, 5))
	require.NoError(t, store.Set(settings.KeyTopTimeWindow, "DECADE"))
	require.NoError(t, store.Set(settings.KeyPreviewSize, 100))
	require.NoError(t, store.Set(settings.KeyPostLimit, -3))

	assert.Equal(t, types.SortMethodName, s.SortMethod())
	assert.Equal(t, types.SortOrderAsc, s.SortOrder())
	assert.Equal(t, types.TimeWindowWeek, s.TopTimeWindow())
	assert.Equal(t, 110, s.PreviewSize())
	assert.Equal(t, 50, s.PostLimit())
}
