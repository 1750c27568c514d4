package reddit

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/redditdl/userfinder/pkg/utils"
	"go.uber.org/zap"
)

// deletedAuthor is the author name Reddit reports for removed accounts.
const deletedAuthor = "[deleted]"

// listing is the envelope of every Reddit listing response.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string    `json:"kind"`
			Data postEntry `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// postEntry is the subset of a t3 (link) object the finder needs.
type postEntry struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}

// toPost converts a listing entry into a post.
func (p postEntry) toPost() types.Post {
	sec, frac := math.Modf(p.CreatedUTC)
	return types.Post{
		ID:        p.ID,
		Author:    p.Author,
		Subreddit: p.Subreddit,
		Title:     utils.CompressAllWhitespace(p.Title),
		URL:       p.URL,
		Score:     p.Score,
		CreatedAt: time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(),
	}
}

// TopPosts returns up to limit top posts of a subreddit within the time window,
// following the listing cursor across pages. Posts by deleted accounts are skipped.
func (c *Client) TopPosts(ctx context.Context, subreddit string, window types.TimeWindow, limit int) ([]types.Post, error) {
	if err := checkName(subreddit); err != nil {
		return nil, err
	}
	limit = min(max(limit, 1), maxListingItems)

	path := fmt.Sprintf("/r/%s/top.json", subreddit)
	posts := make([]types.Post, 0, limit)

	err := c.walkListing(ctx, path, url.Values{"t": {window.QueryValue()}}, limit, func(entry postEntry) {
		if entry.Author == "" || entry.Author == deletedAuthor {
			return
		}
		posts = append(posts, entry.toPost())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top posts of r/%s: %w", subreddit, err)
	}

	c.logger.Debug("Fetched top posts",
		zap.String("subreddit", subreddit),
		zap.String("window", window.QueryValue()),
		zap.Int("count", len(posts)))

	return posts, nil
}

// PostCount counts the submissions of a user. Reddit never lists more than
// 1000 items, so larger histories report 1000.
func (c *Client) PostCount(ctx context.Context, name string) (int, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	count := 0
	path := fmt.Sprintf("/user/%s/submitted.json", name)

	err := c.walkListing(ctx, path, nil, maxListingItems, func(postEntry) {
		count++
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts of u/%s: %w", name, err)
	}

	return count, nil
}

// walkListing pages through a listing until limit entries were visited or
// the listing ends.
func (c *Client) walkListing(
	ctx context.Context, path string, query url.Values, limit int, visit func(postEntry),
) error {
	seen := 0
	after := ""

	for seen < limit {
		params := url.Values{}
		for key, values := range query {
			params[key] = values
		}
		params.Set("limit", strconv.Itoa(min(maxPageSize, limit-seen)))
		params.Set("raw_json", "1")
		if after != "" {
			params.Set("after", after)
			params.Set("count", strconv.Itoa(seen))
		}

		body, err := c.get(ctx, path, params)
		if err != nil {
			return err
		}

		var page listing
		if err := sonic.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("%w: listing: %w", ErrMalformedResponse, err)
		}

		for _, child := range page.Data.Children {
			if seen >= limit {
				break
			}
			visit(child.Data)
			seen++
		}

		if page.Data.After == "" || len(page.Data.Children) == 0 {
			break
		}
		after = page.Data.After
	}

	return nil
}
