package hmi

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a navigation error
type ErrorType int

const (
	// ErrTypeUnknownPage indicates a navigation target that is not registered.
	// It is a programming error and is never recovered from at runtime.
	ErrTypeUnknownPage ErrorType = iota
	// ErrTypeDuplicatePage indicates two pages registered under the same id or name
	ErrTypeDuplicatePage
	// ErrTypeFieldUnavailable indicates a display field that does not exist on
	// the current page. Visibility probes treat it as "not visible".
	ErrTypeFieldUnavailable
	// ErrTypeStaleReturnPage indicates a resume was requested with no return page
	ErrTypeStaleReturnPage
	// ErrTypeNoCurrentPage indicates an event arrived before the first page was shown
	ErrTypeNoCurrentPage
	// ErrTypeIncompleteSnapshot indicates telemetry missing a core printer object
	ErrTypeIncompleteSnapshot
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnknownPage:
		return "Unknown Page"
	case ErrTypeDuplicatePage:
		return "Duplicate Page"
	case ErrTypeFieldUnavailable:
		return "Field Unavailable"
	case ErrTypeStaleReturnPage:
		return "Stale Return Page"
	case ErrTypeNoCurrentPage:
		return "No Current Page"
	case ErrTypeIncompleteSnapshot:
		return "Incomplete Snapshot"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// NavError is the error type returned by the navigation engine and its helpers
type NavError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	PageID  PageID    // Page involved (if applicable)
	Field   string    // Display field involved (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *NavError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *NavError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error breaks an engine invariant and must stop
// the event loop instead of being logged and skipped.
func (e *NavError) Fatal() bool {
	return e.Type == ErrTypeUnknownPage || e.Type == ErrTypeDuplicatePage
}

// NewUnknownPageError creates an error for an unregistered page id
func NewUnknownPageError(id PageID) *NavError {
	return &NavError{
		Type:    ErrTypeUnknownPage,
		Message: fmt.Sprintf("no page registered with id %d", id),
		PageID:  id,
	}
}

// NewFieldUnavailableError creates an error for a display field that could
// not be read. Display transports wrap their protocol error with it.
func NewFieldUnavailableError(field string, err error) *NavError {
	return &NavError{
		Type:    ErrTypeFieldUnavailable,
		Message: fmt.Sprintf("display field %q is unavailable", field),
		Field:   field,
		Err:     err,
	}
}

func isType(err error, t ErrorType) bool {
	var navErr *NavError
	if errors.As(err, &navErr) {
		return navErr.Type == t
	}
	return false
}

// IsUnknownPage reports whether err is an UnknownPage error
func IsUnknownPage(err error) bool {
	return isType(err, ErrTypeUnknownPage)
}

// IsFieldUnavailable reports whether err is a FieldUnavailable error
func IsFieldUnavailable(err error) bool {
	return isType(err, ErrTypeFieldUnavailable)
}

// IsNoCurrentPage reports whether err is a NoCurrentPage error
func IsNoCurrentPage(err error) bool {
	return isType(err, ErrTypeNoCurrentPage)
}

// IsIncompleteSnapshot reports whether err is an IncompleteSnapshot error
func IsIncompleteSnapshot(err error) bool {
	return isType(err, ErrTypeIncompleteSnapshot)
}

// IsFatal reports whether err must stop the event loop
func IsFatal(err error) bool {
	var navErr *NavError
	if errors.As(err, &navErr) {
		return navErr.Fatal()
	}
	return false
}
