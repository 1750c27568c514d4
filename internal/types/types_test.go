package types_test

import (
	"testing"
	"time"

	"github.com/redditdl/userfinder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, types.FoldKey("SomeUser"), types.FoldKey("someuser"))
	assert.Equal(t, types.FoldKey(" spaced "), types.FoldKey("SPACED"))
	assert.NotEqual(t, types.FoldKey("user_a"), types.FoldKey("user_b"))
}

func TestDiscoveredUser_PostCount(t *testing.T) {
	t.Parallel()

	user := types.NewDiscoveredUser("u1")
	assert.False(t, user.HasPostCount())

	user.SetPostCount(0)
	require.True(t, user.HasPostCount())
	assert.Equal(t, 0, *user.PostCount)

	user.SetPostCount(42)
	assert.Equal(t, 42, *user.PostCount)
}

func TestDiscoveredUser_ObservePost(t *testing.T) {
	t.Parallel()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	user := types.NewDiscoveredUser("u1")
	user.ObservePost(time.Time{})
	assert.Nil(t, user.LastPostDate)

	user.ObservePost(newer)
	user.ObservePost(older)
	require.NotNil(t, user.LastPostDate)
	assert.Equal(t, newer, *user.LastPostDate)
}

func TestDiscoveredUser_Clone(t *testing.T) {
	t.Parallel()

	user := types.NewDiscoveredUser("u1")
	user.SetKarma(10)
	user.SetPostCount(3)
	user.Content = []types.ContentItem{{Title: "a", URL: "https://example.com/a"}}

	clone := user.Clone()
	clone.SetKarma(20)
	*clone.PostCount = 99
	clone.Content[0].Title = "changed"

	assert.Equal(t, 10, *user.Karma)
	assert.Equal(t, 3, *user.PostCount)
	assert.Equal(t, "a", user.Content[0].Title)
}

func TestSortMethodRoundTrip(t *testing.T) {
	t.Parallel()

	for _, method := range types.SortMethodValues() {
		parsed, err := types.SortMethodString(method.String())
		require.NoError(t, err)
		assert.Equal(t, method, parsed)
	}

	assert.Equal(t, []string{"NAME", "KARMA", "POST_DATE"}, types.SortMethodStrings())

	parsed, err := types.SortMethodString("post_date")
	require.NoError(t, err)
	assert.Equal(t, types.SortMethodPostDate, parsed)

	_, err = types.SortMethodString("SIZE")
	require.Error(t, err)
	assert.False(t, types.SortMethod(7).IsASortMethod())
}

func TestSortOrderString(t *testing.T) {
	t.Parallel()

	order, err := types.SortOrderString("DESC")
	require.NoError(t, err)
	assert.Equal(t, types.SortOrderDesc, order)

	order, err = types.SortOrderString("asc")
	require.NoError(t, err)
	assert.Equal(t, types.SortOrderAsc, order)

	_, err = types.SortOrderString("down")
	require.Error(t, err)
}

func TestTimeWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"HOUR", "hour"},
		{"DAY", "day"},
		{"WEEK", "week"},
		{"MONTH", "month"},
		{"YEAR", "year"},
		{"ALL", "all"},
	}

	for _, tt := range tests {
		window, err := types.TimeWindowString(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.name, window.String())
		assert.Equal(t, tt.query, window.QueryValue())
	}

	_, err := types.TimeWindowString("DECADE")
	require.Error(t, err)
}

func TestTimeWindowZeroValueIsWeek(t *testing.T) {
	t.Parallel()

	var window types.TimeWindow
	assert.Equal(t, types.TimeWindowWeek, window)
	assert.Equal(t, "week", window.QueryValue())
}
