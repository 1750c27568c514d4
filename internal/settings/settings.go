package settings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/redditdl/userfinder/internal/types"
	"go.uber.org/zap"
)

// ErrInvalidPreviewSize is returned for a preview size outside PreviewSizes.
var ErrInvalidPreviewSize = errors.New("invalid preview size")

// Settings keys.
const (
	KeyWatchlist            = "user_finder.subreddit_list"
	KeyBlacklist            = "user_finder.user_blacklist"
	KeySortMethod           = "user_finder.user_list_sort_method"
	KeySortOrder            = "user_finder.user_list_sort_order"
	KeyPreviewSize          = "user_finder.preview_size"
	KeyAutoAddList          = "user_finder.auto_add_user_list"
	KeyTopTimeWindow        = "user_finder.top_sort_method"
	KeyFilterByScore        = "user_finder.filter_by_score"
	KeyScoreLimit           = "user_finder.score_limit"
	KeyPostLimit            = "user_finder.post_limit"
	KeyLayout               = "user_finder.layout"
	KeyUpdateDialogGeometry = "update.dialog_geometry"
	KeyDoNotNotifyVersion   = "update.do_not_notify"
)

// Default values.
const (
	DefaultSortMethod    = types.SortMethodName
	DefaultSortOrder     = types.SortOrderAsc
	DefaultPreviewSize   = 110
	DefaultAutoAddList   = "Default"
	DefaultTopTimeWindow = types.TimeWindowWeek
	DefaultFilterByScore = false
	DefaultScoreLimit    = 1000
	DefaultPostLimit     = 50
	MaxPostLimit         = 1000
)

// PreviewSizes lists the allowed preview sizes in pixels. Zero shows content at its original size.
var PreviewSizes = []int{48, 72, 110, 176, 256, 0}

// Layout holds the opaque window geometry and splitter state blobs of the finder panel.
type Layout struct {
	Geometry  []byte   `json:"geometry,omitempty"`
	Splitters [][]byte `json:"splitters,omitempty"`
}

// Settings provides typed access to the user finder settings.
type Settings struct {
	store  *Store
	logger *zap.Logger
}

// New creates typed settings on top of a store.
func New(store *Store, logger *zap.Logger) *Settings {
	return &Settings{
		store:  store,
		logger: logger.Named("settings"),
	}
}

// Store returns the underlying store.
func (s *Settings) Store() *Store {
	return s.store
}

// Flush persists all pending changes.
func (s *Settings) Flush() error {
	return s.store.Flush()
}

// value reads key into a T, falling back to def when unset or unreadable.
func value[T any](s *Settings, key string, def T) T {
	var v T
	found, err := s.store.Get(key, &v)
	if err != nil {
		s.logger.Warn("Ignoring unreadable setting", zap.String("key", key), zap.Error(err))
		return def
	}
	if !found {
		return def
	}
	return v
}

// Watchlist returns the subreddits to scan, in display order.
func (s *Settings) Watchlist() []string {
	return value(s, KeyWatchlist, []string{})
}

// SetWatchlist stores the subreddits to scan.
func (s *Settings) SetWatchlist(subreddits []string) error {
	return s.store.Set(KeyWatchlist, nonNil(subreddits))
}

// Blacklist returns the users excluded from discovery, in display order.
func (s *Settings) Blacklist() []string {
	return value(s, KeyBlacklist, []string{})
}

// SetBlacklist stores the users excluded from discovery.
func (s *Settings) SetBlacklist(users []string) error {
	return s.store.Set(KeyBlacklist, nonNil(users))
}

// SortMethod returns the user list sort method.
func (s *Settings) SortMethod() types.SortMethod {
	method, err := types.SortMethodString(value(s, KeySortMethod, DefaultSortMethod.String()))
	if err != nil {
		s.logger.Warn("Ignoring unknown sort method", zap.Error(err))
		return DefaultSortMethod
	}
	return method
}

// SetSortMethod stores the user list sort method.
func (s *Settings) SetSortMethod(method types.SortMethod) error {
	return s.store.Set(KeySortMethod, method.String())
}

// SortOrder returns the user list sort order.
func (s *Settings) SortOrder() types.SortOrder {
	order, err := types.SortOrderString(value(s, KeySortOrder, DefaultSortOrder.String()))
	if err != nil {
		s.logger.Warn("Ignoring unknown sort order", zap.Error(err))
		return DefaultSortOrder
	}
	return order
}

// SetSortOrder stores the user list sort order.
func (s *Settings) SetSortOrder(order types.SortOrder) error {
	return s.store.Set(KeySortOrder, order.String())
}

// PreviewSize returns the content preview size in pixels.
func (s *Settings) PreviewSize() int {
	size := value(s, KeyPreviewSize, DefaultPreviewSize)
	if !slices.Contains(PreviewSizes, size) {
		return DefaultPreviewSize
	}
	return size
}

// SetPreviewSize stores the content preview size.
func (s *Settings) SetPreviewSize(size int) error {
	if !slices.Contains(PreviewSizes, size) {
		return fmt.Errorf("%w: %d", ErrInvalidPreviewSize, size)
	}
	return s.store.Set(KeyPreviewSize, size)
}

// AutoAddList returns the name of the user list found users are added to.
func (s *Settings) AutoAddList() string {
	name := value(s, KeyAutoAddList, DefaultAutoAddList)
	if name == "" {
		return DefaultAutoAddList
	}
	return name
}

// SetAutoAddList stores the name of the user list found users are added to.
func (s *Settings) SetAutoAddList(name string) error {
	return s.store.Set(KeyAutoAddList, name)
}

// TopTimeWindow returns the time window of the top listing that is scanned.
func (s *Settings) TopTimeWindow() types.TimeWindow {
	window, err := types.TimeWindowString(value(s, KeyTopTimeWindow, DefaultTopTimeWindow.String()))
	if err != nil {
		s.logger.Warn("Ignoring unknown time window", zap.Error(err))
		return DefaultTopTimeWindow
	}
	return window
}

// SetTopTimeWindow stores the time window of the top listing.
func (s *Settings) SetTopTimeWindow(window types.TimeWindow) error {
	return s.store.Set(KeyTopTimeWindow, window.String())
}

// FilterByScore reports whether posts below the score limit are skipped.
func (s *Settings) FilterByScore() bool {
	return value(s, KeyFilterByScore, DefaultFilterByScore)
}

// SetFilterByScore stores whether posts below the score limit are skipped.
func (s *Settings) SetFilterByScore(enabled bool) error {
	return s.store.Set(KeyFilterByScore, enabled)
}

// ScoreLimit returns the minimum post score when score filtering is enabled.
func (s *Settings) ScoreLimit() int {
	return value(s, KeyScoreLimit, DefaultScoreLimit)
}

// SetScoreLimit stores the minimum post score.
func (s *Settings) SetScoreLimit(limit int) error {
	return s.store.Set(KeyScoreLimit, max(limit, 0))
}

// PostLimit returns how many top posts are read per subreddit.
func (s *Settings) PostLimit() int {
	limit := value(s, KeyPostLimit, DefaultPostLimit)
	if limit <= 0 {
		return DefaultPostLimit
	}
	return min(limit, MaxPostLimit)
}

// SetPostLimit stores how many top posts are read per subreddit, clamped to 1..1000.
func (s *Settings) SetPostLimit(limit int) error {
	return s.store.Set(KeyPostLimit, min(max(limit, 1), MaxPostLimit))
}

// Layout returns the saved panel layout.
func (s *Settings) Layout() Layout {
	return value(s, KeyLayout, Layout{})
}

// SetLayout stores the panel layout.
func (s *Settings) SetLayout(layout Layout) error {
	return s.store.Set(KeyLayout, layout)
}

// UpdateDialogGeometry returns the saved geometry of the update notice.
func (s *Settings) UpdateDialogGeometry() []byte {
	return value[[]byte](s, KeyUpdateDialogGeometry, nil)
}

// SetUpdateDialogGeometry stores the geometry of the update notice.
func (s *Settings) SetUpdateDialogGeometry(geometry []byte) error {
	return s.store.Set(KeyUpdateDialogGeometry, geometry)
}

// DoNotNotifyVersion returns the version the user asked not to be notified about again.
func (s *Settings) DoNotNotifyVersion() string {
	return value(s, KeyDoNotNotifyVersion, "")
}

// SetDoNotNotifyVersion stores the version the user asked not to be notified about again.
func (s *Settings) SetDoNotNotifyVersion(version string) error {
	return s.store.Set(KeyDoNotNotifyVersion, version)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
