package finder

import "github.com/redditdl/userfinder/internal/types"

// RunID identifies one discovery run. The panel increments it for every
// run and discards events that carry an older id.
type RunID uint64

// RequestID identifies one post count or content request.
type RequestID uint64

// Event is a notification sent from a worker to the panel.
type Event interface {
	isEvent()
}

// UserDiscovered reports a new candidate user.
type UserDiscovered struct {
	Run  RunID
	User *types.DiscoveredUser
}

// SubredditScanned reports progress after a subreddit was processed.
type SubredditScanned struct {
	Run       RunID
	Subreddit string
	Found     int
	Done      int
	Total     int
}

// SubredditFailed reports a subreddit that could not be scanned. The run continues.
type SubredditFailed struct {
	Run       RunID
	Subreddit string
	Err       error
}

// RunFinished is always the last event of a run and is sent exactly once.
// Err is nil for a completed run, wraps the content source error for an
// aborted run and is the context error for a cancelled one.
type RunFinished struct {
	Run    RunID
	Found  int
	Failed []string
	Err    error
}

// PostCountResult carries the outcome of a post count request.
type PostCountResult struct {
	Request RequestID
	Name    string
	Count   int
	Cached  bool
	Err     error
}

// ContentLoaded carries a user's recent submissions for the preview.
type ContentLoaded struct {
	Request RequestID
	Name    string
	Items   []types.ContentItem
	Err     error
}

func (UserDiscovered) isEvent()   {}
func (SubredditScanned) isEvent() {}
func (SubredditFailed) isEvent()  {}
func (RunFinished) isEvent()      {}
func (PostCountResult) isEvent()  {}
func (ContentLoaded) isEvent()    {}
