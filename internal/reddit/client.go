// Package reddit implements the content source used by the user finder.
// It reads the public JSON listings and the RSS feeds that Reddit serves
// without authentication.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/redditdl/userfinder/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the public Reddit endpoint.
	DefaultBaseURL = "https://www.reddit.com"
	// DefaultUserAgent identifies the client. Reddit throttles generic agents.
	DefaultUserAgent = "userfinder/1.0 (+https://github.com/redditdl/userfinder)"

	// maxPageSize is the largest page Reddit returns for a listing.
	maxPageSize = 100
	// maxListingItems is the hard cap Reddit places on any listing.
	maxListingItems = 1000
	// maxErrorBody bounds how much of an error response is kept for the message.
	maxErrorBody = 256
)

// validName matches subreddit and user names as Reddit allows them.
var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// Options configures a Client.
type Options struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	MaxConcurrent int64
	Retry         utils.RetryOptions
}

// DefaultOptions returns options pointing at the public Reddit endpoint.
func DefaultOptions() Options {
	return Options{
		BaseURL:       DefaultBaseURL,
		UserAgent:     DefaultUserAgent,
		Timeout:       30 * time.Second,
		MaxConcurrent: 4,
		Retry:         utils.GetRequestRetryOptions(),
	}
}

// Client fetches subreddit listings and user information from Reddit.
// It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	agent   string
	retry   utils.RetryOptions
	sem     *semaphore.Weighted
	group   singleflight.Group
	logger  *zap.Logger
}

// NewClient creates a new Reddit client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaults.MaxConcurrent
	}
	if opts.Retry == (utils.RetryOptions{}) {
		opts.Retry = defaults.Retry
	}

	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		agent:   opts.UserAgent,
		retry:   opts.Retry,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
		logger:  logger.Named("reddit_client"),
	}
}

// get fetches a path relative to the base URL and returns the response body.
// Concurrent calls for the same URL share one request. The shared request
// is not tied to any single caller, so a cancelled caller only stops waiting
// while the others still receive the result.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	sharedCtx := context.WithoutCancel(ctx)
	resultCh := c.group.DoChan(target, func() (any, error) {
		return utils.WithRetry(sharedCtx, func() ([]byte, error) {
			return c.fetch(sharedCtx, target)
		}, c.retry)
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Shared in-flight request", zap.String("url", target))
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetch performs a single request attempt. Errors that should not be
// retried are wrapped with utils.Permanent.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, utils.Permanent(err)
	}
	defer c.sem.Release(1)

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.agent)

	// Execute request
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, utils.Permanent(ctx.Err())
		}
		c.logger.Debug("Request failed", zap.String("url", target), zap.Error(err))
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(fmt.Errorf("reading body: %w", err))
	}

	// Check response
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("Rate limited by reddit", zap.String("url", target))
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, target)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.Permanent(fmt.Errorf("%w: %s", ErrNotFound, target))
	case resp.StatusCode == http.StatusForbidden:
		return nil, utils.Permanent(fmt.Errorf("%w: %s", ErrForbidden, target))
	default:
		return nil, utils.Permanent(fmt.Errorf("%w: %d: %s",
			ErrUnexpectedStatus, resp.StatusCode, truncate(string(body), maxErrorBody)))
	}
}

// classifyTransportError separates losing Reddit altogether (DNS failures,
// refused or failed dials) from a single request going wrong.
func classifyTransportError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrServerError, err)
}

// checkName validates a subreddit or user name before it is placed in a URL.
func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// newFeedParser creates a feed parser for user content feeds.
func newFeedParser() *gofeed.Parser {
	return gofeed.NewParser()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
