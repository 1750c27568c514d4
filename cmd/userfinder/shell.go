package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redditdl/userfinder/internal/finder"
	"github.com/redditdl/userfinder/internal/panel"
	"github.com/redditdl/userfinder/internal/progress"
	"github.com/redditdl/userfinder/internal/types"
)

// consoleShell prints panel notifications to a terminal.
type consoleShell struct {
	out      io.Writer
	bar      *progress.Bar
	renderer *progress.Renderer
	result   *panel.RunResult
	found    int
	lists    map[string][]string
}

func newConsoleShell(out io.Writer, showProgress bool) *consoleShell {
	shell := &consoleShell{
		out:   out,
		lists: make(map[string][]string),
	}

	if showProgress {
		shell.bar = progress.NewBar(0, 25, "Discovering")
		shell.renderer = progress.NewRenderer(out, 100*time.Millisecond, shell.bar)
	}

	return shell
}

func (s *consoleShell) println(a ...any) {
	if s.renderer != nil {
		s.renderer.Println(a...)
		return
	}
	_, _ = fmt.Fprintln(s.out, a...)
}

// runStarted resets the progress display for a run over total subreddits.
func (s *consoleShell) runStarted(total int) {
	s.result = nil
	s.found = 0
	if s.bar != nil {
		s.bar.Reset(int64(total))
	}
}

func (s *consoleShell) UserDiscovered(_ int, user *types.DiscoveredUser) {
	s.found++
	if s.bar != nil {
		s.bar.SetFound(s.found)
	}
	s.println("found", user.Name)
}

func (s *consoleShell) Progress(scanned finder.SubredditScanned) {
	if s.bar == nil {
		return
	}
	s.bar.SetTotal(int64(scanned.Total))
	s.bar.SetCurrent(int64(scanned.Done))
	s.bar.SetStepMessage(fmt.Sprintf("r/%s: %d new", scanned.Subreddit, scanned.Found))
}

func (s *consoleShell) PostCountUpdated(name string, count int) {
	s.println(fmt.Sprintf("%s has %d posts", name, count))
}

func (s *consoleShell) ContentLoaded(name string, items []types.ContentItem) {
	s.println(fmt.Sprintf("%s: %d recent submissions", name, len(items)))
}

func (s *consoleShell) Notice(message string) {
	s.println("notice:", message)
}

func (s *consoleShell) RunFinished(result panel.RunResult) {
	s.result = &result

	switch {
	case errors.Is(result.Err, panel.ErrRunAbandoned):
		s.println("discovery abandoned")
	case result.Err != nil:
		s.println("discovery stopped:", result.Err)
	default:
		summary := fmt.Sprintf("discovery finished: %d users found", result.Found)
		if len(result.Failed) > 0 {
			summary += fmt.Sprintf(", failed: %s", strings.Join(result.Failed, ", "))
		}
		s.println(summary)
	}
}

func (s *consoleShell) AddToUserList(list, name string) {
	s.lists[list] = append(s.lists[list], name)
	s.println(fmt.Sprintf("added %s to list %q", name, list))
}

// printUsers writes the found users as a table.
func printUsers(out io.Writer, users []*types.DiscoveredUser) {
	if len(users) == 0 {
		_, _ = fmt.Fprintln(out, "no users found")
		return
	}

	width := len("NAME")
	for _, user := range users {
		width = max(width, len(user.Name))
	}

	_, _ = fmt.Fprintf(out, "%-*s  %8s  %6s  %s\n", width, "NAME", "KARMA", "POSTS", "LAST POST")
	for _, user := range users {
		_, _ = fmt.Fprintf(out, "%-*s  %8s  %6s  %s\n",
			width, user.Name, optionalInt(user.Karma), optionalInt(user.PostCount), optionalTime(user.LastPostDate))
	}
}

// printContent writes a user's recent submissions.
func printContent(out io.Writer, items []types.ContentItem) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(out, "no submissions")
		return
	}

	for _, item := range items {
		_, _ = fmt.Fprintf(out, "%s  r/%s  %s\n    %s\n",
			item.CreatedAt.Format(time.DateOnly), item.Subreddit, item.Title, item.URL)
	}
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func optionalTime(v *time.Time) string {
	if v == nil {
		return "-"
	}
	return v.Local().Format(time.DateTime)
}
