package reddit

import "errors"

var (
	// ErrSourceUnavailable indicates Reddit could not be reached at all.
	ErrSourceUnavailable = errors.New("reddit unavailable")
	// ErrServerError indicates a request kept failing on Reddit's side (5xx, reset connection).
	ErrServerError = errors.New("reddit server error")
	// ErrTimeout indicates a request kept timing out.
	ErrTimeout = errors.New("reddit request timed out")
	// ErrRateLimited indicates Reddit kept answering 429 after all retries.
	ErrRateLimited = errors.New("rate limited by reddit")
	// ErrNotFound indicates the subreddit or user does not exist or is suspended.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a private, quarantined or banned subreddit.
	ErrForbidden = errors.New("access forbidden")
	// ErrUnexpectedStatus indicates any other non-success response.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrMalformedResponse indicates a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrInvalidName indicates an empty or malformed subreddit or user name.
	ErrInvalidName = errors.New("invalid name")
)
