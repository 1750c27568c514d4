package reddit_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redditdl/userfinder/internal/reddit"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/redditdl/userfinder/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.Handler) *reddit.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return reddit.NewClient(reddit.Options{
		BaseURL:       server.URL,
		UserAgent:     "userfinder-test",
		Timeout:       5 * time.Second,
		MaxConcurrent: 2,
		Retry: utils.RetryOptions{
			MaxElapsedTime:  time.Second,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxRetries:      3,
		},
	}, zaptest.NewLogger(t))
}

func listingPage(after string, entries ...string) string {
	children := ""
	for i, entry := range entries {
		if i > 0 {
			children += ","
		}
		children += fmt.Sprintf(`{"kind":"t3","data":%s}`, entry)
	}
	return fmt.Sprintf(`{"kind":"Listing","data":{"after":%q,"children":[%s]}}`, after, children)
}

func postJSON(id, author string, score int, created int64) string {
	return fmt.Sprintf(
		`{"id":%q,"author":%q,"subreddit":"golang","title":"post %s","url":"https://example.com/%s","score":%d,"created_utc":%d.0}`,
		id, author, id, id, score, created)
}

func TestClient_TopPosts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/golang/top.json", r.URL.Path)
		assert.Equal(t, "week", r.URL.Query().Get("t"))
		assert.Equal(t, "userfinder-test", r.Header.Get("User-Agent"))

		switch r.URL.Query().Get("after") {
		case "":
			fmt.Fprint(w, listingPage("t3_b",
				postJSON("a", "u1", 10, 1700000000),
				postJSON("b", "[deleted]", 5, 1700000100),
			))
		case "t3_b":
			fmt.Fprint(w, listingPage("",
				postJSON("c", "u2", 3, 1700000200),
			))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("after"))
		}
	}))

	posts, err := client.TopPosts(t.Context(), "golang", types.TimeWindowWeek, 50)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "u1", posts[0].Author)
	assert.Equal(t, 10, posts[0].Score)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), posts[0].CreatedAt)
	assert.Equal(t, "u2", posts[1].Author)
}

func TestClient_TopPostsRespectsLimit(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		fmt.Fprint(w, listingPage("t3_next",
			postJSON("a", "u1", 1, 1700000000),
			postJSON("b", "u2", 1, 1700000000),
			postJSON("c", "u3", 1, 1700000000),
		))
	}))

	posts, err := client.TopPosts(t.Context(), "golang", types.TimeWindowDay, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_TopPostsCompactsTitles(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listingPage("",
			`{"id":"a","author":"u1","subreddit":"golang","title":"  release\n\n notes\tfor   1.24 ","score":1,"created_utc":1700000000.0}`,
		))
	}))

	posts, err := client.TopPosts(t.Context(), "golang", types.TimeWindowWeek, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "release notes for 1.24", posts[0].Title)
}

func TestClient_PostCount(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/someone/submitted.json", r.URL.Path)

		if r.URL.Query().Get("after") == "" {
			fmt.Fprint(w, listingPage("t3_2",
				postJSON("1", "someone", 1, 1700000000),
				postJSON("2", "someone", 1, 1700000000),
			))
			return
		}
		fmt.Fprint(w, listingPage("", postJSON("3", "someone", 1, 1700000000)))
	}))

	count, err := client.PostCount(t.Context(), "someone")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestClient_Karma(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/total/about.json":
			fmt.Fprint(w, `{"kind":"t2","data":{"name":"total","link_karma":1,"comment_karma":2,"total_karma":40}}`)
		case "/user/split/about.json":
			fmt.Fprint(w, `{"kind":"t2","data":{"name":"split","link_karma":10,"comment_karma":5}}`)
		case "/user/banned/about.json":
			fmt.Fprint(w, `{"kind":"t2","data":{"name":"banned","is_suspended":true}}`)
		default:
			http.NotFound(w, r)
		}
	}))

	karma, err := client.Karma(t.Context(), "total")
	require.NoError(t, err)
	assert.Equal(t, 40, karma)

	karma, err = client.Karma(t.Context(), "split")
	require.NoError(t, err)
	assert.Equal(t, 15, karma)

	_, err = client.Karma(t.Context(), "banned")
	require.ErrorIs(t, err, reddit.ErrNotFound)

	_, err = client.Karma(t.Context(), "missing")
	require.ErrorIs(t, err, reddit.ErrNotFound)
}

const userFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>overview for someone</title>
  <entry>
    <title>older
      post</title>
    <link href="https://www.reddit.com/r/golang/comments/1/older_post/"/>
    <category term="golang" label="r/golang"/>
    <updated>2024-01-01T10:00:00+00:00</updated>
    <published>2024-01-01T10:00:00+00:00</published>
  </entry>
  <entry>
    <title>newer post</title>
    <link href="https://www.reddit.com/r/rust/comments/2/newer_post/"/>
    <category term="rust" label="r/rust"/>
    <updated>2024-02-01T10:00:00+00:00</updated>
    <published>2024-02-01T10:00:00+00:00</published>
  </entry>
</feed>`

func TestClient_UserContent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/someone/submitted/.rss", r.URL.Path)
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, userFeed)
	}))

	items, err := client.UserContent(t.Context(), "someone", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "newer post", items[0].Title)
	assert.Equal(t, "https://www.reddit.com/r/rust/comments/2/newer_post/", items[0].URL)
	assert.Equal(t, "rust", items[0].Subreddit)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), items[0].CreatedAt)
	assert.Equal(t, "older post", items[1].Title)

	items, err = client.UserContent(t.Context(), "someone", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "newer post", items[0].Title)
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		expectedErr   error
		expectedCalls int32
	}{
		{
			name:          "not found is not retried",
			status:        http.StatusNotFound,
			expectedErr:   reddit.ErrNotFound,
			expectedCalls: 1,
		},
		{
			name:          "forbidden is not retried",
			status:        http.StatusForbidden,
			expectedErr:   reddit.ErrForbidden,
			expectedCalls: 1,
		},
		{
			name:          "unexpected status is not retried",
			status:        http.StatusTeapot,
			expectedErr:   reddit.ErrUnexpectedStatus,
			expectedCalls: 1,
		},
		{
			name:          "server errors are retried",
			status:        http.StatusBadGateway,
			expectedErr:   reddit.ErrServerError,
			expectedCalls: 4,
		},
		{
			name:          "rate limits are retried",
			status:        http.StatusTooManyRequests,
			expectedErr:   reddit.ErrRateLimited,
			expectedCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))

			_, err := client.TopPosts(t.Context(), "golang", types.TimeWindowAll, 10)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedCalls, calls.Load())
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	client := reddit.NewClient(reddit.Options{
		BaseURL:       server.URL,
		Timeout:       50 * time.Millisecond,
		MaxConcurrent: 1,
		Retry: utils.RetryOptions{
			MaxElapsedTime:  time.Second,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			MaxRetries:      1,
		},
	}, zaptest.NewLogger(t))

	_, err := client.TopPosts(t.Context(), "slowsub", types.TimeWindowWeek, 10)
	require.ErrorIs(t, err, reddit.ErrTimeout)
	require.NotErrorIs(t, err, reddit.ErrSourceUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_SharedRequestSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	var (
		calls   atomic.Int32
		hitOnce sync.Once
		hit     = make(chan struct{})
		release = make(chan struct{})
	)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		hitOnce.Do(func() { close(hit) })

		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		fmt.Fprint(w, listingPage("", postJSON("a", "u1", 10, 1700000000)))
	}))

	// The first caller starts the request and gives up while it is in flight
	firstCtx, cancelFirst := context.WithCancel(t.Context())
	firstDone := make(chan error, 1)
	go func() {
		_, err := client.TopPosts(firstCtx, "golang", types.TimeWindowWeek, 10)
		firstDone <- err
	}()
	<-hit

	type result struct {
		posts []types.Post
		err   error
	}
	secondDone := make(chan result, 1)
	go func() {
		posts, err := client.TopPosts(t.Context(), "golang", types.TimeWindowWeek, 10)
		secondDone <- result{posts: posts, err: err}
	}()

	// Let the second caller join the in-flight request
	time.Sleep(50 * time.Millisecond)
	cancelFirst()

	select {
	case err := <-firstDone:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)

	select {
	case res := <-secondDone:
		require.NoError(t, res.err)
		require.Len(t, res.posts, 1)
		assert.Equal(t, "u1", res.posts[0].Author)
	case <-time.After(2 * time.Second):
		t.Fatal("joined caller did not return")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := reddit.NewClient(reddit.Options{
		BaseURL: baseURL,
		Retry: utils.RetryOptions{
			MaxElapsedTime:  time.Second,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			MaxRetries:      1,
		},
	}, zaptest.NewLogger(t))

	_, err := client.PostCount(t.Context(), "someone")
	require.ErrorIs(t, err, reddit.ErrSourceUnavailable)
}

func TestClient_InvalidName(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.TopPosts(t.Context(), "../etc", types.TimeWindowWeek, 10)
	require.ErrorIs(t, err, reddit.ErrInvalidName)

	_, err = client.Karma(t.Context(), "")
	require.ErrorIs(t, err, reddit.ErrInvalidName)
}
