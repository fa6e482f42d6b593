package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a repository, release or license is not found.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamDown is returned when a host's circuit breaker is open.
	ErrUpstreamDown = errors.New("upstream host unavailable")
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.IsNotFound()
}

// NotFoundError wraps ErrNotFound with additional context.
type NotFoundError struct {
	Host  string
	Owner string
	Name  string
	What  string // "repository", "release", "license"
}

func (e *NotFoundError) Error() string {
	what := e.What
	if what == "" {
		what = "repository"
	}
	return fmt.Sprintf("%s: %s %s/%s not found", e.Host, what, e.Owner, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError is returned when the host rate limits requests.
type RateLimitError struct {
	RetryAfter int // seconds
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}

// IsNotFound reports whether err is a 404 or a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
