package panel

import (
	"errors"
	"fmt"
	"slices"

	"github.com/redditdl/userfinder/internal/types"
	"github.com/redditdl/userfinder/pkg/utils"
)

var (
	// ErrBlankEntry is returned when a watchlist or blacklist entry is empty.
	ErrBlankEntry = errors.New("entry is blank")
	// ErrDuplicateEntry is returned when an entry is already listed.
	ErrDuplicateEntry = errors.New("entry already listed")
)

// legacyPlaceholder is an entry older settings files use to mark an empty list.
const legacyPlaceholder = "filler"

// entryList is an ordered list of unique names compared case-insensitively.
type entryList struct {
	entries []string
}

// newEntryList builds a list from persisted entries, dropping blanks,
// duplicates and the legacy placeholder.
func newEntryList(persisted []string) *entryList {
	list := &entryList{entries: make([]string, 0, len(persisted))}
	for _, entry := range persisted {
		if entry == legacyPlaceholder {
			continue
		}
		_ = list.add(entry)
	}
	return list
}

// add normalizes and appends an entry.
func (l *entryList) add(entry string) error {
	entry = utils.NormalizeName(entry)
	if entry == "" {
		return ErrBlankEntry
	}
	if l.contains(entry) {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry)
	}

	l.entries = append(l.entries, entry)
	return nil
}

// removeAt removes the entry at index.
func (l *entryList) removeAt(index int) (string, error) {
	if index < 0 || index >= len(l.entries) {
		return "", fmt.Errorf("%w: %d (len %d)", ErrInvalidIndex, index, len(l.entries))
	}

	entry := l.entries[index]
	l.entries = slices.Delete(l.entries, index, index+1)

	return entry, nil
}

func (l *entryList) contains(entry string) bool {
	key := types.FoldKey(entry)
	return slices.ContainsFunc(l.entries, func(e string) bool {
		return types.FoldKey(e) == key
	})
}

func (l *entryList) snapshot() []string {
	return slices.Clone(l.entries)
}
