// Package finder discovers Reddit users by scanning the authors of top
// posts in a set of subreddits. Work runs in background goroutines and
// results are reported as events on a channel.
package finder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/redditdl/userfinder/internal/reddit"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/redditdl/userfinder/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"github.com/sourcegraph/conc/stream"
	"go.uber.org/zap"
)

var (
	// ErrWorkerUsed is returned when a worker is asked to run a second operation.
	ErrWorkerUsed = errors.New("worker already used")
	// ErrPartialFetch wraps the failure of a single subreddit.
	ErrPartialFetch = errors.New("subreddit fetch failed")
)

// Source is the content source the worker reads from.
type Source interface {
	TopPosts(ctx context.Context, subreddit string, window types.TimeWindow, limit int) ([]types.Post, error)
	PostCount(ctx context.Context, name string) (int, error)
	Karma(ctx context.Context, name string) (int, error)
	UserContent(ctx context.Context, name string, limit int) ([]types.ContentItem, error)
}

// PostCountCache stores post counts between requests.
type PostCountCache interface {
	GetPostCount(ctx context.Context, name string) (int, bool, error)
	SetPostCount(ctx context.Context, name string, count int) error
}

// Options controls what a worker fetches and how posts are filtered.
type Options struct {
	TimeWindow              types.TimeWindow
	PostLimit               int
	FilterByScore           bool
	ScoreLimit              int
	EnrichKarma             bool
	MaxConcurrentSubreddits int
	MaxConcurrentKarma      int
	ContentLimit            int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TimeWindow:              types.TimeWindowWeek,
		PostLimit:               50,
		FilterByScore:           false,
		ScoreLimit:              1000,
		EnrichKarma:             false,
		MaxConcurrentSubreddits: 3,
		MaxConcurrentKarma:      4,
		ContentLimit:            25,
	}
}

// Worker performs exactly one operation over its lifetime. A fresh worker
// is created for every discovery run and every request.
type Worker struct {
	source Source
	cache  PostCountCache
	opts   Options
	used   atomic.Bool
	logger *zap.Logger
}

// NewWorker creates a one-shot worker. The cache may be nil.
func NewWorker(source Source, cache PostCountCache, opts Options, logger *zap.Logger) *Worker {
	defaults := DefaultOptions()
	if opts.PostLimit <= 0 {
		opts.PostLimit = defaults.PostLimit
	}
	if opts.MaxConcurrentSubreddits <= 0 {
		opts.MaxConcurrentSubreddits = defaults.MaxConcurrentSubreddits
	}
	if opts.MaxConcurrentKarma <= 0 {
		opts.MaxConcurrentKarma = defaults.MaxConcurrentKarma
	}
	if opts.ContentLimit <= 0 {
		opts.ContentLimit = defaults.ContentLimit
	}

	return &Worker{
		source: source,
		cache:  cache,
		opts:   opts,
		logger: logger.Named("user_finder"),
	}
}

// claim marks the worker as used.
func (w *Worker) claim() error {
	if !w.used.CompareAndSwap(false, true) {
		return ErrWorkerUsed
	}
	return nil
}

// Discover scans the subreddits in order and emits every new author that is
// not blacklisted. The lists are copied before Discover returns, so later
// edits by the caller do not affect the run. It returns immediately; the
// run ends with exactly one RunFinished event.
func (w *Worker) Discover(
	ctx context.Context, run RunID, subreddits, blacklist []string, events chan<- Event,
) error {
	if err := w.claim(); err != nil {
		return err
	}

	subreddits = slices.Clone(subreddits)
	blocked := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		blocked[types.FoldKey(name)] = struct{}{}
	}

	go w.discover(ctx, run, subreddits, blocked, events)

	return nil
}

// discover runs the scan and reports the results.
func (w *Worker) discover(
	ctx context.Context, run RunID, subreddits []string, blocked map[string]struct{}, events chan<- Event,
) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.logger.Info("Starting discovery run",
		zap.Uint64("run", uint64(run)),
		zap.Strings("subreddits", subreddits),
		zap.Int("blacklisted", len(blocked)))

	var (
		emitted  = make(map[string]struct{})
		failed   []string
		found    int
		done     int
		abortErr error
	)

	// Subreddits are fetched concurrently but their results are handled
	// one at a time in watchlist order
	s := stream.New().WithMaxGoroutines(w.opts.MaxConcurrentSubreddits)
	for _, subreddit := range subreddits {
		s.Go(func() stream.Callback {
			if utils.ContextGuardWithLog(runCtx, w.logger, "Discovery cancelled before scanning subreddit") {
				return func() {}
			}

			users, err := w.scanSubreddit(runCtx, subreddit, blocked)

			return func() {
				if abortErr != nil || runCtx.Err() != nil {
					return
				}
				done++

				if err != nil {
					if errors.Is(err, reddit.ErrSourceUnavailable) {
						abortErr = fmt.Errorf("discovery aborted at r/%s: %w", subreddit, err)
						cancel()
						return
					}

					w.logger.Warn("Failed to scan subreddit",
						zap.String("subreddit", subreddit),
						zap.Error(err))

					failed = append(failed, subreddit)
					utils.Send[Event](ctx, events, SubredditFailed{
						Run:       run,
						Subreddit: subreddit,
						Err:       fmt.Errorf("%w: r/%s: %w", ErrPartialFetch, subreddit, err),
					})
					return
				}

				newUsers := 0
				for _, user := range users {
					key := user.Key()
					if _, exists := emitted[key]; exists {
						continue
					}
					emitted[key] = struct{}{}

					if !utils.Send[Event](ctx, events, UserDiscovered{Run: run, User: user}) {
						return
					}
					newUsers++
				}
				found += newUsers

				utils.Send[Event](ctx, events, SubredditScanned{
					Run:       run,
					Subreddit: subreddit,
					Found:     newUsers,
					Done:      done,
					Total:     len(subreddits),
				})
			}
		})
	}
	s.Wait()

	result := RunFinished{
		Run:    run,
		Found:  found,
		Failed: failed,
		Err:    abortErr,
	}
	if result.Err == nil && ctx.Err() != nil {
		result.Err = ctx.Err()
	}

	if result.Err != nil {
		w.logger.Warn("Discovery run ended early",
			zap.Uint64("run", uint64(run)),
			zap.Int("found", found),
			zap.Error(result.Err))
	} else {
		w.logger.Info("Discovery run finished",
			zap.Uint64("run", uint64(run)),
			zap.Int("found", found),
			zap.Int("failedSubreddits", len(failed)))
	}

	utils.Send[Event](ctx, events, result)
}

// scanSubreddit fetches one subreddit's posts and returns its eligible
// authors in listing order. Each user's last post date is the newest of
// their posts in the listing.
func (w *Worker) scanSubreddit(
	ctx context.Context, subreddit string, blocked map[string]struct{},
) ([]*types.DiscoveredUser, error) {
	posts, err := w.source.TopPosts(ctx, subreddit, w.opts.TimeWindow, w.opts.PostLimit)
	if err != nil {
		return nil, err
	}

	users := make([]*types.DiscoveredUser, 0, len(posts))
	byKey := make(map[string]*types.DiscoveredUser, len(posts))

	for _, post := range posts {
		if w.opts.FilterByScore && post.Score < w.opts.ScoreLimit {
			continue
		}

		key := types.FoldKey(post.Author)
		if key == "" {
			continue
		}
		if _, isBlocked := blocked[key]; isBlocked {
			continue
		}

		if user, exists := byKey[key]; exists {
			user.ObservePost(post.CreatedAt)
			continue
		}

		user := types.NewDiscoveredUser(post.Author)
		user.ObservePost(post.CreatedAt)
		byKey[key] = user
		users = append(users, user)
	}

	if w.opts.EnrichKarma && len(users) > 0 {
		w.enrichKarma(ctx, users)
	}

	return users, nil
}

// enrichKarma fetches karma for each user. Failures leave karma unset.
func (w *Worker) enrichKarma(ctx context.Context, users []*types.DiscoveredUser) {
	p := pool.New().WithMaxGoroutines(w.opts.MaxConcurrentKarma)
	for _, user := range users {
		p.Go(func() {
			if utils.ContextGuard(ctx) {
				return
			}

			karma, err := w.source.Karma(ctx, user.Name)
			if err != nil {
				w.logger.Debug("Failed to fetch karma",
					zap.String("user", user.Name),
					zap.Error(err))
				return
			}
			user.SetKarma(karma)
		})
	}
	p.Wait()
}

// PostCount fetches one user's post count and emits exactly one
// PostCountResult. It returns immediately.
func (w *Worker) PostCount(ctx context.Context, req RequestID, name string, events chan<- Event) error {
	if err := w.claim(); err != nil {
		return err
	}

	go func() {
		count, cached, err := w.postCount(ctx, name)
		if err != nil {
			w.logger.Warn("Failed to fetch post count",
				zap.String("user", name),
				zap.Error(err))
		}

		utils.Send[Event](ctx, events, PostCountResult{
			Request: req,
			Name:    name,
			Count:   count,
			Cached:  cached,
			Err:     err,
		})
	}()

	return nil
}

// postCount reads the count from the cache or the source.
func (w *Worker) postCount(ctx context.Context, name string) (int, bool, error) {
	if w.cache != nil {
		count, found, err := w.cache.GetPostCount(ctx, name)
		if err == nil && found {
			return count, true, nil
		}
	}

	count, err := w.source.PostCount(ctx, name)
	if err != nil {
		return 0, false, err
	}

	if w.cache != nil {
		if err := w.cache.SetPostCount(ctx, name, count); err != nil {
			w.logger.Debug("Failed to cache post count", zap.String("user", name), zap.Error(err))
		}
	}

	return count, false, nil
}

// FetchContent loads a user's recent submissions and emits exactly one
// ContentLoaded. It returns immediately.
func (w *Worker) FetchContent(ctx context.Context, req RequestID, name string, events chan<- Event) error {
	if err := w.claim(); err != nil {
		return err
	}

	go func() {
		items, err := w.source.UserContent(ctx, name, w.opts.ContentLimit)
		if err != nil {
			w.logger.Warn("Failed to fetch user content",
				zap.String("user", name),
				zap.Error(err))
		}

		utils.Send[Event](ctx, events, ContentLoaded{
			Request: req,
			Name:    name,
			Items:   items,
			Err:     err,
		})
	}()

	return nil
}
