package reddit

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/mmcdole/gofeed"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/redditdl/userfinder/pkg/utils"
)

// about is the response of the user about endpoint.
type about struct {
	Kind string `json:"kind"`
	Data struct {
		Name         string `json:"name"`
		IsSuspended  bool   `json:"is_suspended"`
		LinkKarma    int    `json:"link_karma"`
		CommentKarma int    `json:"comment_karma"`
		TotalKarma   *int   `json:"total_karma"`
	} `json:"data"`
}

// Karma returns the total karma of a user. Suspended accounts report ErrNotFound.
func (c *Client) Karma(ctx context.Context, name string) (int, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}

	body, err := c.get(ctx, fmt.Sprintf("/user/%s/about.json", name), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch karma of u/%s: %w", name, err)
	}

	var info about
	if err := sonic.Unmarshal(body, &info); err != nil {
		return 0, fmt.Errorf("%w: about: %w", ErrMalformedResponse, err)
	}

	if info.Data.IsSuspended {
		return 0, fmt.Errorf("%w: u/%s is suspended", ErrNotFound, name)
	}

	if info.Data.TotalKarma != nil {
		return *info.Data.TotalKarma, nil
	}
	return info.Data.LinkKarma + info.Data.CommentKarma, nil
}

// UserContent returns the newest submissions of a user from their RSS feed,
// newest first, limited to limit items.
func (c *Client) UserContent(ctx context.Context, name string, limit int) ([]types.ContentItem, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("/user/%s/submitted/.rss", name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content of u/%s: %w", name, err)
	}

	feed, err := newFeedParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: feed: %w", ErrMalformedResponse, err)
	}

	items := make([]types.ContentItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, toContentItem(item))
	}

	slices.SortStableFunc(items, func(a, b types.ContentItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

// toContentItem converts a feed entry. Reddit puts the subreddit in the
// entry category as "r/name" with the bare name as the term.
func toContentItem(item *gofeed.Item) types.ContentItem {
	var created time.Time
	switch {
	case item.PublishedParsed != nil:
		created = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		created = *item.UpdatedParsed
	}

	subreddit := ""
	if len(item.Categories) > 0 {
		subreddit = item.Categories[0]
	}

	return types.ContentItem{
		Title:     utils.CompressAllWhitespace(item.Title),
		URL:       item.Link,
		Subreddit: subreddit,
		CreatedAt: created.UTC(),
	}
}
