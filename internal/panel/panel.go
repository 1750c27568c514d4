// Package panel implements the discovery panel: it edits the watchlist and
// blacklist, starts discovery runs and applies worker events to the list of
// found users.
//
// A Panel is not safe for concurrent use. Workers only ever send events on
// the channel returned by Events; the goroutine that owns the panel passes
// them to Handle, so all state changes happen on that goroutine.
package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/redditdl/userfinder/internal/finder"
	"github.com/redditdl/userfinder/internal/finder/userlist"
	"github.com/redditdl/userfinder/internal/settings"
	"github.com/redditdl/userfinder/internal/types"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning is returned when a run is started while another is active.
	ErrAlreadyRunning = errors.New("discovery run already active")
	// ErrPostCountPending is returned while a post count request is outstanding.
	ErrPostCountPending = errors.New("post count request already pending")
	// ErrRunAbandoned is reported for a run that was abandoned before it finished.
	ErrRunAbandoned = errors.New("discovery run abandoned")
	// ErrClosed is returned when the panel is used after Close.
	ErrClosed = errors.New("panel is closed")
	// ErrInvalidIndex is returned for positions outside a list.
	ErrInvalidIndex = userlist.ErrInvalidIndex
)

// DefaultQueueSize is the capacity of the event queue.
const DefaultQueueSize = 256

// State is the state of the discovery session.
type State int

const (
	// StateIdle means no run is active.
	StateIdle State = iota
	// StateRunning means a discovery run is active.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Config holds the collaborators of a panel.
type Config struct {
	Settings  *settings.Settings
	Source    finder.Source
	Cache     finder.PostCountCache
	Options   finder.Options
	Shell     Shell
	QueueSize int
}

// pendingRequest tracks an outstanding request to a worker.
type pendingRequest struct {
	id   finder.RequestID
	name string
}

// Panel orchestrates discovery runs and post count requests.
type Panel struct {
	settings *settings.Settings
	source   finder.Source
	cache    finder.PostCountCache
	opts     finder.Options
	shell    Shell
	logger   *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	cancelRun context.CancelFunc
	events    chan finder.Event
	closed    bool

	state       State
	run         finder.RunID
	nextRequest finder.RequestID
	postCount   *pendingRequest
	content     map[finder.RequestID]string

	watchlist   *entryList
	blacklist   *entryList
	users       *userlist.Model
	sortMethod  types.SortMethod
	sortOrder   types.SortOrder
	previewSize int
}

// New creates a panel and restores its lists and preferences from settings.
// Workers started by the panel stop when ctx is cancelled or the panel is closed.
func New(ctx context.Context, cfg Config, logger *zap.Logger) *Panel {
	if cfg.Shell == nil {
		cfg.Shell = NopShell{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	panelCtx, cancel := context.WithCancel(ctx)

	p := &Panel{
		settings:    cfg.Settings,
		source:      cfg.Source,
		cache:       cfg.Cache,
		opts:        cfg.Options,
		shell:       cfg.Shell,
		logger:      logger.Named("discovery_panel"),
		ctx:         panelCtx,
		cancel:      cancel,
		events:      make(chan finder.Event, cfg.QueueSize),
		content:     make(map[finder.RequestID]string),
		watchlist:   newEntryList(cfg.Settings.Watchlist()),
		blacklist:   newEntryList(cfg.Settings.Blacklist()),
		users:       userlist.New(),
		sortMethod:  cfg.Settings.SortMethod(),
		sortOrder:   cfg.Settings.SortOrder(),
		previewSize: cfg.Settings.PreviewSize(),
	}

	p.logger.Debug("Panel restored",
		zap.Int("subreddits", len(p.watchlist.entries)),
		zap.Int("blacklisted", len(p.blacklist.entries)),
		zap.String("sortMethod", p.sortMethod.String()),
		zap.String("sortOrder", p.sortOrder.String()))

	return p
}

// Events returns the queue workers deliver their events to.
func (p *Panel) Events() <-chan finder.Event {
	return p.events
}

// Run applies events until ctx is cancelled.
func (p *Panel) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-p.events:
			p.Handle(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// State returns the state of the discovery session.
func (p *Panel) State() State {
	return p.state
}

// CurrentRun returns the id of the latest run.
func (p *Panel) CurrentRun() finder.RunID {
	return p.run
}

// Watchlist returns the subreddits to scan.
func (p *Panel) Watchlist() []string {
	return p.watchlist.snapshot()
}

// Blacklist returns the excluded users.
func (p *Panel) Blacklist() []string {
	return p.blacklist.snapshot()
}

// AddSubreddit appends a subreddit to the watchlist. Edits made while a run
// is active apply to the next run.
func (p *Panel) AddSubreddit(name string) error {
	return p.watchlist.add(name)
}

// RemoveSubreddit removes the subreddit at index from the watchlist.
func (p *Panel) RemoveSubreddit(index int) (string, error) {
	return p.watchlist.removeAt(index)
}

// AddBlacklisted appends a user to the blacklist.
func (p *Panel) AddBlacklisted(name string) error {
	return p.blacklist.add(name)
}

// RemoveBlacklisted removes the user at index from the blacklist.
func (p *Panel) RemoveBlacklisted(index int) (string, error) {
	return p.blacklist.removeAt(index)
}

// Start persists the settings and launches a discovery run over the current
// watchlist and blacklist.
func (p *Panel) Start() (finder.RunID, error) {
	if p.closed {
		return 0, ErrClosed
	}
	if p.state == StateRunning {
		return 0, ErrAlreadyRunning
	}

	if err := p.SaveSettings(); err != nil {
		p.logger.Warn("Failed to save settings before run", zap.Error(err))
	}

	p.run++
	runCtx, cancelRun := context.WithCancel(p.ctx)

	worker := finder.NewWorker(p.source, p.cache, p.workerOptions(), p.logger)
	if err := worker.Discover(runCtx, p.run, p.watchlist.snapshot(), p.blacklist.snapshot(), p.events); err != nil {
		cancelRun()
		return 0, fmt.Errorf("failed to start discovery: %w", err)
	}

	p.cancelRun = cancelRun
	p.state = StateRunning

	p.logger.Info("Discovery run started",
		zap.Uint64("run", uint64(p.run)),
		zap.Strings("subreddits", p.watchlist.entries))

	return p.run, nil
}

// workerOptions merges the configured worker options with the user's filters.
func (p *Panel) workerOptions() finder.Options {
	opts := p.opts
	opts.TimeWindow = p.settings.TopTimeWindow()
	opts.PostLimit = p.settings.PostLimit()
	opts.FilterByScore = p.settings.FilterByScore()
	opts.ScoreLimit = p.settings.ScoreLimit()
	return opts
}

// Abandon stops the active run. Events the run still delivers are discarded.
func (p *Panel) Abandon() {
	if p.state != StateRunning {
		return
	}

	abandoned := p.run
	p.endRun()

	p.logger.Info("Discovery run abandoned", zap.Uint64("run", uint64(abandoned)))
	p.shell.RunFinished(RunResult{Run: abandoned, Err: ErrRunAbandoned})
}

// endRun cancels the active run's worker and returns to idle.
func (p *Panel) endRun() {
	if p.cancelRun != nil {
		p.cancelRun()
		p.cancelRun = nil
	}
	p.state = StateIdle
}

// Handle applies a worker event. It reports whether the event changed any
// state; stale events are discarded.
func (p *Panel) Handle(ev finder.Event) bool {
	switch e := ev.(type) {
	case finder.UserDiscovered:
		if !p.isCurrent(e.Run) {
			return p.discard("user discovered", e.Run)
		}
		return p.addUser(e.User)

	case finder.SubredditScanned:
		if !p.isCurrent(e.Run) {
			return p.discard("subreddit scanned", e.Run)
		}
		p.shell.Progress(e)
		return true

	case finder.SubredditFailed:
		if !p.isCurrent(e.Run) {
			return p.discard("subreddit failed", e.Run)
		}
		p.shell.Notice(fmt.Sprintf("Could not scan r/%s: %v", e.Subreddit, e.Err))
		return true

	case finder.RunFinished:
		if !p.isCurrent(e.Run) {
			return p.discard("run finished", e.Run)
		}
		p.endRun()

		p.logger.Info("Discovery run finished",
			zap.Uint64("run", uint64(e.Run)),
			zap.Int("found", e.Found),
			zap.Strings("failed", e.Failed),
			zap.Error(e.Err))

		p.shell.RunFinished(RunResult{Run: e.Run, Found: e.Found, Failed: e.Failed, Err: e.Err})
		return true

	case finder.PostCountResult:
		return p.applyPostCount(e)

	case finder.ContentLoaded:
		return p.applyContent(e)

	default:
		p.logger.Warn("Ignoring unknown event", zap.String("type", fmt.Sprintf("%T", ev)))
		return false
	}
}

// isCurrent reports whether a run event belongs to the active run.
func (p *Panel) isCurrent(run finder.RunID) bool {
	return p.state == StateRunning && run == p.run
}

func (p *Panel) discard(kind string, run finder.RunID) bool {
	p.logger.Debug("Discarding stale event",
		zap.String("event", kind),
		zap.Uint64("run", uint64(run)),
		zap.Uint64("currentRun", uint64(p.run)))
	return false
}

// addUser inserts a discovered user and keeps the list sorted.
func (p *Panel) addUser(user *types.DiscoveredUser) bool {
	if !p.users.Add(user) {
		return false
	}

	p.users.Sort(p.sortMethod, p.sortOrder)
	p.shell.UserDiscovered(p.users.IndexOf(user.Name), user)

	return true
}

// applyPostCount stores a post count if it answers the outstanding request
// and the user is still listed.
func (p *Panel) applyPostCount(e finder.PostCountResult) bool {
	if p.postCount == nil || p.postCount.id != e.Request {
		p.logger.Debug("Discarding unexpected post count", zap.String("user", e.Name))
		return false
	}
	p.postCount = nil

	if e.Err != nil {
		p.shell.Notice(fmt.Sprintf("Could not count posts of u/%s: %v", e.Name, e.Err))
		return false
	}

	if !p.users.SetPostCount(e.Name, e.Count) {
		return false
	}

	p.shell.PostCountUpdated(e.Name, e.Count)
	return true
}

// applyContent stores loaded content if the user is still listed.
func (p *Panel) applyContent(e finder.ContentLoaded) bool {
	if _, ok := p.content[e.Request]; !ok {
		return false
	}
	delete(p.content, e.Request)

	if e.Err != nil {
		p.shell.Notice(fmt.Sprintf("Could not load content of u/%s: %v", e.Name, e.Err))
		return false
	}

	items := e.Items
	if items == nil {
		items = []types.ContentItem{}
	}
	if !p.users.SetContent(e.Name, items) {
		return false
	}

	if p.sortMethod == types.SortMethodPostDate {
		p.users.Sort(p.sortMethod, p.sortOrder)
	}
	p.shell.ContentLoaded(e.Name, items)

	return true
}

// Users returns the found users in display order.
func (p *Panel) Users() []*types.DiscoveredUser {
	return p.users.Users()
}

// User returns the found user at index.
func (p *Panel) User(index int) (*types.DiscoveredUser, error) {
	return p.users.At(index)
}

// SortMethod returns the active sort method.
func (p *Panel) SortMethod() types.SortMethod {
	return p.sortMethod
}

// SortOrder returns the active sort order.
func (p *Panel) SortOrder() types.SortOrder {
	return p.sortOrder
}

// SetSortMethod changes the sort method and resorts the list.
func (p *Panel) SetSortMethod(method types.SortMethod) {
	p.sortMethod = method
	p.users.Sort(p.sortMethod, p.sortOrder)
}

// SetSortOrder changes the sort order and resorts the list.
func (p *Panel) SetSortOrder(order types.SortOrder) {
	p.sortOrder = order
	p.users.Sort(p.sortMethod, p.sortOrder)
}

// PreviewSize returns the content preview size.
func (p *Panel) PreviewSize() int {
	return p.previewSize
}

// SetPreviewSize changes the content preview size.
func (p *Panel) SetPreviewSize(size int) error {
	if err := p.settings.SetPreviewSize(size); err != nil {
		return err
	}
	p.previewSize = size
	return nil
}

// PostCountPending reports whether a post count request is outstanding.
func (p *Panel) PostCountPending() bool {
	return p.postCount != nil
}

// RequestPostCount asks for the post count of the user at index. Only one
// request may be outstanding; it is independent of discovery runs.
func (p *Panel) RequestPostCount(index int) error {
	if p.closed {
		return ErrClosed
	}

	user, err := p.users.At(index)
	if err != nil {
		return err
	}

	if p.postCount != nil {
		return fmt.Errorf("%w: u/%s", ErrPostCountPending, p.postCount.name)
	}

	p.nextRequest++
	request := &pendingRequest{id: p.nextRequest, name: user.Name}

	worker := finder.NewWorker(p.source, p.cache, p.opts, p.logger)
	if err := worker.PostCount(p.ctx, request.id, user.Name, p.events); err != nil {
		return fmt.Errorf("failed to request post count: %w", err)
	}
	p.postCount = request

	return nil
}

// Select returns the user at index for the preview and starts loading the
// user's content when it has not been loaded yet.
func (p *Panel) Select(index int) (*types.DiscoveredUser, error) {
	user, err := p.users.At(index)
	if err != nil {
		return nil, err
	}

	if user.Content != nil || p.closed || p.contentPending(user.Name) {
		return user, nil
	}

	p.nextRequest++
	id := p.nextRequest

	worker := finder.NewWorker(p.source, p.cache, p.opts, p.logger)
	if err := worker.FetchContent(p.ctx, id, user.Name, p.events); err != nil {
		return user, fmt.Errorf("failed to request content: %w", err)
	}
	p.content[id] = user.Name

	return user, nil
}

func (p *Panel) contentPending(name string) bool {
	key := types.FoldKey(name)
	for _, pending := range p.content {
		if types.FoldKey(pending) == key {
			return true
		}
	}
	return false
}

// RemoveFound removes the found user at index.
func (p *Panel) RemoveFound(index int) (*types.DiscoveredUser, error) {
	return p.users.RemoveAt(index)
}

// BlacklistFound removes the found user at index and blacklists them.
func (p *Panel) BlacklistFound(index int) (*types.DiscoveredUser, error) {
	user, err := p.users.RemoveAt(index)
	if err != nil {
		return nil, err
	}

	if err := p.blacklist.add(user.Name); err != nil && !errors.Is(err, ErrDuplicateEntry) {
		return user, err
	}

	return user, nil
}

// AddFoundToList hands the found user at index to the configured user list.
func (p *Panel) AddFoundToList(index int) error {
	user, err := p.users.At(index)
	if err != nil {
		return err
	}

	p.shell.AddToUserList(p.settings.AutoAddList(), user.Name)
	return nil
}

// ClearFound removes every found user.
func (p *Panel) ClearFound() {
	p.users.Clear()
}

// SaveSettings persists the lists and preferences of the panel.
func (p *Panel) SaveSettings() error {
	err := errors.Join(
		p.settings.SetWatchlist(p.watchlist.snapshot()),
		p.settings.SetBlacklist(p.blacklist.snapshot()),
		p.settings.SetSortMethod(p.sortMethod),
		p.settings.SetSortOrder(p.sortOrder),
		p.settings.SetPreviewSize(p.previewSize),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return p.settings.Flush()
}

// Close saves the settings, abandons the active run and stops all workers.
func (p *Panel) Close() error {
	if p.closed {
		return nil
	}

	err := p.SaveSettings()
	p.Abandon()
	p.cancel()
	p.closed = true
	p.postCount = nil
	clear(p.content)

	return err
}
