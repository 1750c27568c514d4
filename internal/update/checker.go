package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redditdl/userfinder/internal/settings"
	"github.com/redditdl/userfinder/pkg/utils"
	"go.uber.org/zap"
)

const (
	// DefaultAPIURL is the GitHub REST API endpoint.
	DefaultAPIURL = "https://api.github.com"
	// DefaultRepository is the repository releases are published in.
	DefaultRepository = "redditdl/userfinder"
)

var (
	// ErrNoRelease is returned when the repository has no published release.
	ErrNoRelease = errors.New("no release published")
	// ErrUnexpectedStatus is returned for any other non-success response.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Release is the latest published release.
type Release struct {
	Version string
	URL     string
}

// release is the subset of the GitHub release payload that is used.
type release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Checker looks up the latest release of the application.
type Checker struct {
	client     *http.Client
	apiURL     string
	repository string
	retry      utils.RetryOptions
	logger     *zap.Logger
}

// NewChecker creates a release checker. Empty arguments select the defaults.
func NewChecker(apiURL, repository string, logger *zap.Logger) *Checker {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if repository == "" {
		repository = DefaultRepository
	}

	return &Checker{
		client:     &http.Client{Timeout: 15 * time.Second},
		apiURL:     strings.TrimRight(apiURL, "/"),
		repository: repository,
		retry:      utils.GetRequestRetryOptions(),
		logger:     logger.Named("update_checker"),
	}
}

// WithRetryOptions replaces the retry options used for requests.
func (c *Checker) WithRetryOptions(opts utils.RetryOptions) *Checker {
	c.retry = opts
	return c
}

// Latest returns the latest published release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	rel, err := utils.WithRetry(ctx, func() (*release, error) {
		return c.fetchLatest(ctx)
	}, c.retry)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched latest release",
		zap.String("version", rel.TagName),
		zap.String("url", rel.HTMLURL))

	return &Release{Version: rel.TagName, URL: rel.HTMLURL}, nil
}

// Check fetches the latest release and returns a notice when the user should be told about it.
// Returns nil without error when no notice is due.
func (c *Checker) Check(ctx context.Context, current string, s *settings.Settings) (*Notice, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}

	if !ShouldNotify(s, current, latest.Version, c.logger) {
		return nil, nil
	}

	notice := NewNotice(current, latest.Version)
	notice.ReleasesURL = "https://github.com/" + c.repository + "/releases"
	if latest.URL != "" {
		notice.DirectURL = latest.URL
	}

	return &notice, nil
}

// fetchLatest performs a single request.
func (c *Checker) fetchLatest(ctx context.Context) (*release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, c.repository)

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.Permanent(fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	// Execute request
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	// Check response
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.Permanent(fmt.Errorf("%w: %s", ErrNoRelease, c.repository))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, utils.Permanent(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	// Parse response
	var rel release
	if err := sonic.Unmarshal(body, &rel); err != nil {
		return nil, utils.Permanent(fmt.Errorf("error decoding release: %w", err))
	}
	if rel.TagName == "" || rel.Draft || rel.Prerelease {
		return nil, utils.Permanent(fmt.Errorf("%w: %s", ErrNoRelease, c.repository))
	}

	return &rel, nil
}
