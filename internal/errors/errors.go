// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested path or object does not exist upstream.
	ErrNotFound = errors.New("not found")
	// ErrNotAFile is returned when a content read targets a folder.
	ErrNotAFile = errors.New("not a file")
)

// ErrInvalidReference is returned when a string does not resolve to an owner/name pair.
type ErrInvalidReference struct {
	Input string
}

func (e *ErrInvalidReference) Error() string {
	return fmt.Sprintf("invalid repository reference: %q, expected '<host>/<owner>/<name>'", e.Input)
}

// ErrUpstreamFetch is returned when a required read against the source-control API fails.
// Status is the HTTP status code when one was received, 0 otherwise.
type ErrUpstreamFetch struct {
	Op     string
	Status int
	Err    error
}

func (e *ErrUpstreamFetch) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s failed with status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *ErrUpstreamFetch) Unwrap() error {
	return e.Err
}
