package types

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// ContentItem is a single piece of content posted by a user.
type ContentItem struct {
	Title     string
	URL       string
	Subreddit string
	CreatedAt time.Time
}

// Post is a subreddit listing entry as returned by the content source.
type Post struct {
	ID        string
	Author    string
	Subreddit string
	Title     string
	URL       string
	Score     int
	CreatedAt time.Time
}

// DiscoveredUser is a candidate user found by scanning subreddit posts.
// Nil optional fields mean the value has not been fetched.
type DiscoveredUser struct {
	Name         string
	Karma        *int
	LastPostDate *time.Time
	PostCount    *int
	Content      []ContentItem
}

// NewDiscoveredUser creates a user with only the name set.
func NewDiscoveredUser(name string) *DiscoveredUser {
	return &DiscoveredUser{Name: name}
}

// Key returns the identity used for duplicate and blacklist checks.
func (u *DiscoveredUser) Key() string {
	return FoldKey(u.Name)
}

// HasPostCount reports whether the post count has been fetched.
func (u *DiscoveredUser) HasPostCount() bool {
	return u.PostCount != nil
}

// SetPostCount records the post count. The count can be replaced by a
// newer value but never returns to the unset state.
func (u *DiscoveredUser) SetPostCount(count int) {
	u.PostCount = &count
}

// SetKarma records the user's karma.
func (u *DiscoveredUser) SetKarma(karma int) {
	u.Karma = &karma
}

// ObservePost moves the last post date forward if the given time is newer.
func (u *DiscoveredUser) ObservePost(at time.Time) {
	if at.IsZero() {
		return
	}
	if u.LastPostDate == nil || at.After(*u.LastPostDate) {
		u.LastPostDate = &at
	}
}

// Clone returns a copy that shares no mutable state with the original.
func (u *DiscoveredUser) Clone() *DiscoveredUser {
	clone := &DiscoveredUser{Name: u.Name}
	if u.Karma != nil {
		karma := *u.Karma
		clone.Karma = &karma
	}
	if u.LastPostDate != nil {
		date := *u.LastPostDate
		clone.LastPostDate = &date
	}
	if u.PostCount != nil {
		count := *u.PostCount
		clone.PostCount = &count
	}
	if u.Content != nil {
		clone.Content = append([]ContentItem(nil), u.Content...)
	}
	return clone
}

// FoldKey case-folds a Reddit user or subreddit name. Reddit treats names
// that differ only in case as the same account.
func FoldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
