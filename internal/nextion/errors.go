package nextion

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a display error
type ErrorType int

const (
	// ErrTypeReturnCode indicates the display answered with a failure code
	ErrTypeReturnCode ErrorType = iota
	// ErrTypeTimeout indicates the display did not answer in time
	ErrTypeTimeout
	// ErrTypeMalformed indicates a frame that could not be decoded
	ErrTypeMalformed
	// ErrTypeUnexpected indicates an answer of the wrong kind
	ErrTypeUnexpected
	// ErrTypeUnsupportedValue indicates a value that cannot be written to a field
	ErrTypeUnsupportedValue
	// ErrTypeClosed indicates the transport has stopped
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeReturnCode:
		return "Return Code"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeMalformed:
		return "Malformed Frame"
	case ErrTypeUnexpected:
		return "Unexpected Response"
	case ErrTypeUnsupportedValue:
		return "Unsupported Value"
	case ErrTypeClosed:
		return "Transport Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DisplayError is returned by the codec and the transport
type DisplayError struct {
	Type      ErrorType // Category of error
	Code      byte      // Display return code (if applicable)
	Message   string    // Human-readable error message
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the request may succeed if repeated
}

// Error implements the error interface
func (e *DisplayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DisplayError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a display error worth retrying
func IsRetryable(err error) bool {
	var dispErr *DisplayError
	if errors.As(err, &dispErr) {
		return dispErr.Retryable
	}
	return false
}

// IsTimeout reports whether err is a display timeout
func IsTimeout(err error) bool {
	var dispErr *DisplayError
	if errors.As(err, &dispErr) {
		return dispErr.Type == ErrTypeTimeout
	}
	return false
}

func returnCodeError(status *StatusMessage, request string) *DisplayError {
	return &DisplayError{
		Type:    ErrTypeReturnCode,
		Code:    status.Status,
		Message: fmt.Sprintf("%q failed: %s", request, statusName(status.Status)),
		// The display drops input while its buffer is full.
		Retryable: status.Status == CodeBufferOverflow,
	}
}
