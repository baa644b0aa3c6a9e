package contentsource

import (
	"errors"
	"fmt"
	"strings"
)

// SourceUnavailableError means the content source could not be reached:
// network, DNS, timeout, 5xx, or an open circuit breaker.
type SourceUnavailableError struct {
	Op  string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("content source unavailable during %s: %v", e.Op, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SourceError is a well-formed failure reported by the content source itself,
// such as a GraphQL errors payload or a rejected request.
type SourceError struct {
	Op         string
	StatusCode int
	Messages   []string
}

func (e *SourceError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.StatusCode != 0 {
		return fmt.Sprintf("content source error during %s (status %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("content source error during %s: %s", e.Op, msg)
}

// IsUnavailable reports whether err carries a SourceUnavailableError.
func IsUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}

// IsSourceError reports whether err carries a SourceError.
func IsSourceError(err error) bool {
	var target *SourceError
	return errors.As(err, &target)
}
