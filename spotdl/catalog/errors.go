package catalog

import (
	"errors"
	"fmt"
)

// Common catalog errors that can be checked with errors.Is.
var (
	// ErrNotFound is returned when a track or album does not exist.
	ErrNotFound = errors.New("catalog: resource not found")

	// ErrUnsupportedFormat is returned when a track carries no encoding
	// present in the format preference list.
	ErrUnsupportedFormat = errors.New("catalog: no supported format")

	// ErrNoCover is returned when a track has no cover art descriptors.
	ErrNoCover = errors.New("catalog: no cover available")

	// ErrAuthRequired is returned when the catalog rejects the configured
	// credentials.
	ErrAuthRequired = errors.New("catalog: authentication required")
)

// Error wraps an error with the resource that caused it, so callers can use
// errors.Is on the underlying sentinel while still logging useful context.
type Error struct {
	// Resource is the type of resource being accessed ("album", "track",
	// "file", "key").
	Resource string

	// ID is the identifier of the resource, if applicable.
	ID string

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("catalog: %s %s: %v", e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("catalog: %s: %v", e.Resource, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates an Error for a resource that was not found.
func NewNotFoundError(resource, id string) error {
	return &Error{Resource: resource, ID: id, Err: ErrNotFound}
}

// NewAuthRequiredError creates an Error for rejected credentials.
func NewAuthRequiredError(resource string) error {
	return &Error{Resource: resource, Err: ErrAuthRequired}
}
