package crawler

import (
	"errors"
	"fmt"
)

// ErrDisallowed is the cause of a TransportError for a URL that robots.txt
// forbids.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// TransportError describes a failed fetch: either the request did not
// complete or the server answered with a non-success status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError describes a page whose markup lacks the structure the crawler
// depends on.
type ParseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
