package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/redditdl/userfinder/internal/finder"
	"github.com/redditdl/userfinder/internal/panel"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestConsoleShell(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	shell := newConsoleShell(&out, false)
	shell.runStarted(2)

	shell.UserDiscovered(0, types.NewDiscoveredUser("u1"))
	shell.Progress(finder.SubredditScanned{Subreddit: "a", Found: 1, Done: 1, Total: 2})
	shell.Notice("failed to fetch r/b")
	shell.AddToUserList("Default", "u1")
	shell.RunFinished(panel.RunResult{Found: 1, Failed: []string{"b"}})

	output := out.String()
	assert.Contains(t, output, "found u1\n")
	assert.Contains(t, output, "notice: failed to fetch r/b\n")
	assert.Contains(t, output, "added u1 to list \"Default\"\n")
	assert.Contains(t, output, "discovery finished: 1 users found, failed: b\n")
	assert.Equal(t, 1, shell.found)
	assert.Equal(t, []string{"u1"}, shell.lists["Default"])
	assert.NotNil(t, shell.result)
}

func TestConsoleShell_Abandoned(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	shell := newConsoleShell(&out, false)

	shell.RunFinished(panel.RunResult{Err: panel.ErrRunAbandoned})
	assert.Contains(t, out.String(), "discovery abandoned")

	shell.RunFinished(panel.RunResult{Err: errors.New("source down")})
	assert.Contains(t, out.String(), "discovery stopped: source down")
}

func TestPrintUsers(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printUsers(&out, nil)
	assert.Equal(t, "no users found\n", out.String())

	karma := 120
	user := types.NewDiscoveredUser("somebody")
	user.Karma = &karma
	user.SetPostCount(3)

	out.Reset()
	printUsers(&out, []*types.DiscoveredUser{user, types.NewDiscoveredUser("u2")})
	assert.Equal(t,
		"NAME         KARMA   POSTS  LAST POST\n"+
			"somebody       120       3  -\n"+
			"u2               -       -  -\n",
		out.String())
}

func TestPrintContent(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printContent(&out, []types.ContentItem{{
		Title:     "Hello",
		URL:       "https://www.reddit.com/r/golang/comments/1",
		Subreddit: "golang",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}})
	assert.Equal(t, "2024-03-01  r/golang  Hello\n    https://www.reddit.com/r/golang/comments/1\n", out.String())
}
