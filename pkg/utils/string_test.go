package utils_test

import (
	"testing"

	"github.com/redditdl/userfinder/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestCompressAllWhitespace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single space",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "newlines and spaces",
			input: "hello\n\n  world  \n\n",
			want:  "hello world",
		},
		{
			name:  "tabs and spaces",
			input: "hello\t\t  world",
			want:  "hello world",
		},
		{
			name:  "only whitespace",
			input: "   \n\t   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := utils.CompressAllWhitespace(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "golang", want: "golang"},
		{name: "surrounding whitespace", input: "  golang \n", want: "golang"},
		{name: "subreddit prefix", input: "r/golang", want: "golang"},
		{name: "slash subreddit prefix", input: "/r/golang/", want: "golang"},
		{name: "user prefix keeps case", input: "u/SomeUser", want: "SomeUser"},
		{name: "upper case prefix", input: "/U/SomeUser", want: "SomeUser"},
		{name: "long user prefix", input: "/user/someone", want: "someone"},
		{name: "inner whitespace", input: "go lang", want: "golang"},
		{name: "blank", input: "   ", want: ""},
		{name: "name starting with r", input: "rust", want: "rust"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.NormalizeName(tt.input))
		})
	}
}

func TestParseDelimitedInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "golang", want: []string{"golang"}},
		{name: "commas", input: "a, b,,c", want: []string{"a", "b", "c"}},
		{name: "newlines", input: "a\nb\n\nc", want: []string{"a", "b", "c"}},
		{name: "escaped newlines", input: "a\\nb", want: []string{"a", "b"}},
		{name: "mixed", input: "a,b\n c ,\n", want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.ParseDelimitedInput(tt.input))
		})
	}
}
