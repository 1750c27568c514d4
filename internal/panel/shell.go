package panel

import (
	"github.com/redditdl/userfinder/internal/finder"
	"github.com/redditdl/userfinder/internal/types"
)

// Shell renders panel state. All methods are called from the goroutine
// that drives the panel.
type Shell interface {
	// UserDiscovered is called after a user was inserted at index of the sorted list.
	UserDiscovered(index int, user *types.DiscoveredUser)
	// Progress is called after each subreddit of the active run was scanned.
	Progress(scanned finder.SubredditScanned)
	// PostCountUpdated is called when a requested post count was applied.
	PostCountUpdated(name string, count int)
	// ContentLoaded is called when a user's content preview is available.
	ContentLoaded(name string, items []types.ContentItem)
	// Notice shows a non-fatal message.
	Notice(message string)
	// RunFinished is called once when the active run ends.
	RunFinished(result RunResult)
	// AddToUserList asks the application to track a user in the named list.
	AddToUserList(list, name string)
}

// RunResult summarizes a finished discovery run.
type RunResult struct {
	Run    finder.RunID
	Found  int
	Failed []string
	Err    error
}

// NopShell ignores every notification.
type NopShell struct{}

func (NopShell) UserDiscovered(int, *types.DiscoveredUser) {}
func (NopShell) Progress(finder.SubredditScanned) {}
func (NopShell) PostCountUpdated(string, int) {}
func (NopShell) ContentLoaded(string, []types.ContentItem) {}
func (NopShell) Notice(string) {}
func (NopShell) RunFinished(RunResult) {}
func (NopShell) AddToUserList(string, string) {}
