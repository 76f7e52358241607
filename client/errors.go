package client

import (
	"fmt"

	"github.com/git-pkgs/npmchart/fetch"
)

// ErrNotFound is matched by errors for 404 upstream responses.
var ErrNotFound = fetch.ErrNotFound

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// RateLimitError is returned when an upstream rate limits requests.
type RateLimitError struct {
	RetryAfter int // seconds
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}
