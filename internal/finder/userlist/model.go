// Package userlist holds the ordered collection of users found by the user
// finder. It backs the list view of the discovery panel and is only mutated
// from the goroutine that owns the panel.
package userlist

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redditdl/userfinder/internal/types"
)

// ErrInvalidIndex is returned when an operation addresses a position outside the list.
var ErrInvalidIndex = errors.New("index out of range")

// Model is an ordered, sortable list of discovered users.
// Any structural change (add, remove, sort) invalidates indices held by callers.
type Model struct {
	users []*types.DiscoveredUser
	index map[string]struct{}
}

// New creates an empty model.
func New() *Model {
	return &Model{
		users: make([]*types.DiscoveredUser, 0),
		index: make(map[string]struct{}),
	}
}

// Len returns the number of users in the model.
func (m *Model) Len() int {
	return len(m.users)
}

// Add appends a user. It is a no-op returning false when a user with the
// same name is already present.
func (m *Model) Add(user *types.DiscoveredUser) bool {
	key := user.Key()
	if _, exists := m.index[key]; exists {
		return false
	}

	m.index[key] = struct{}{}
	m.users = append(m.users, user)

	return true
}

// At returns the user at the given position.
func (m *Model) At(i int) (*types.DiscoveredUser, error) {
	if i < 0 || i >= len(m.users) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrInvalidIndex, i, len(m.users))
	}
	return m.users[i], nil
}

// RemoveAt removes and returns the user at the given position.
// The collection is left unchanged when the index is invalid.
func (m *Model) RemoveAt(i int) (*types.DiscoveredUser, error) {
	user, err := m.At(i)
	if err != nil {
		return nil, err
	}

	m.users = slices.Delete(m.users, i, i+1)
	delete(m.index, user.Key())

	return user, nil
}

// IndexOf returns the position of the named user or -1 if absent.
func (m *Model) IndexOf(name string) int {
	key := types.FoldKey(name)
	if _, exists := m.index[key]; !exists {
		return -1
	}

	return slices.IndexFunc(m.users, func(u *types.DiscoveredUser) bool {
		return u.Key() == key
	})
}

// Contains reports whether the named user is present.
func (m *Model) Contains(name string) bool {
	_, exists := m.index[types.FoldKey(name)]
	return exists
}

// Find returns the named user.
func (m *Model) Find(name string) (*types.DiscoveredUser, bool) {
	i := m.IndexOf(name)
	if i < 0 {
		return nil, false
	}
	return m.users[i], true
}

// SetPostCount stores the post count on the matching user only.
// Returns false when no user by that name exists.
func (m *Model) SetPostCount(name string, count int) bool {
	user, ok := m.Find(name)
	if !ok {
		return false
	}

	user.SetPostCount(count)

	return true
}

// SetContent replaces the content of the matching user.
// Returns false when no user by that name exists.
func (m *Model) SetContent(name string, items []types.ContentItem) bool {
	user, ok := m.Find(name)
	if !ok {
		return false
	}

	user.Content = items
	for _, item := range items {
		user.ObservePost(item.CreatedAt)
	}

	return true
}

// Users returns a copy of the current ordering.
func (m *Model) Users() []*types.DiscoveredUser {
	return slices.Clone(m.users)
}

// Names returns the user names in the current order.
func (m *Model) Names() []string {
	names := make([]string, len(m.users))
	for i, user := range m.users {
		names[i] = user.Name
	}
	return names
}

// Clear removes every user.
func (m *Model) Clear() {
	m.users = m.users[:0]
	clear(m.index)
}

// Sort reorders the whole collection in place. The sort is stable, so
// equal keys keep their relative positions and sorting twice with the same
// parameters changes nothing. Users with no karma or post date always end
// up after users that have one, in both directions.
func (m *Model) Sort(method types.SortMethod, order types.SortOrder) {
	slices.SortStableFunc(m.users, func(a, b *types.DiscoveredUser) int {
		return compareUsers(a, b, method, order)
	})
}

// compareUsers orders two users for the given method and order.
func compareUsers(a, b *types.DiscoveredUser, method types.SortMethod, order types.SortOrder) int {
	switch method {
	case types.SortMethodKarma:
		return compareOptional(a.Karma, b.Karma, order, cmp.Compare[int])
	case types.SortMethodPostDate:
		return compareOptional(a.LastPostDate, b.LastPostDate, order, func(x, y time.Time) int {
			return x.Compare(y)
		})
	case types.SortMethodName:
		fallthrough
	default:
		return applyOrder(compareNames(a.Name, b.Name), order)
	}
}

// compareNames compares case-insensitively, then by raw name so that the
// ordering is total.
func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareOptional compares two optional values. Unset values sort after
// set values regardless of order.
func compareOptional[T any](a, b *T, order types.SortOrder, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return applyOrder(compare(*a, *b), order)
	}
}

// applyOrder flips a comparison result for descending order.
func applyOrder(c int, order types.SortOrder) int {
	if order == types.SortOrderDesc {
		return -c
	}
	return c
}
