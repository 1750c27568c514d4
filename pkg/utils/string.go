package utils

import (
	"regexp"
	"strings"
)

// MultipleSpaces matches any sequence of whitespace (including newlines).
var MultipleSpaces = regexp.MustCompile(`\s+`)

// namePrefixes are the path prefixes users paste in front of subreddit and user names.
var namePrefixes = []string{"/r/", "r/", "/u/", "u/", "/user/", "user/"}

// CompressAllWhitespace replaces all whitespace sequences (including newlines) with a single space.
func CompressAllWhitespace(s string) string {
	return strings.TrimSpace(MultipleSpaces.ReplaceAllString(s, " "))
}

// NormalizeName trims a subreddit or user name and strips a leading
// "r/" or "u/" style prefix. Names never contain whitespace, so any inner
// whitespace is removed as well.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	return MultipleSpaces.ReplaceAllString(strings.Trim(s, "/"), "")
}

// ParseDelimitedInput splits user input on commas and newlines (escaped or
// not), trimming each entry and dropping blanks.
func ParseDelimitedInput(input string) []string {
	input = strings.ReplaceAll(input, "\\n", "\n")

	var result []string
	for line := range strings.SplitSeq(input, "\n") {
		for part := range strings.SplitSeq(line, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				result = append(result, part)
			}
		}
	}

	return result
}
