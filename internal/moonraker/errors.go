package moonraker

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"

	"github.com/gorilla/websocket"
)

// ErrorType represents the category of a printer API error
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates Moonraker refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeAuth indicates the API key was rejected
	ErrTypeAuth
	// ErrTypeRPC indicates Moonraker answered with a JSON-RPC error
	ErrTypeRPC
	// ErrTypeParse indicates a malformed message
	ErrTypeParse
	// ErrTypeClosed indicates the connection went away mid-request
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeRPC:
		return "RPC Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeClosed:
		return "Connection Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// PrinterError represents an error talking to Moonraker
type PrinterError struct {
	Type      ErrorType // Category of error
	Message   string    // Human-readable error message
	Code      int       // JSON-RPC error code (if applicable)
	Host      string    // Moonraker address (for context)
	Err       error     // Underlying error (if any)
	Retryable bool      // Whether the operation may succeed if repeated
}

// Error implements the error interface
func (e *PrinterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *PrinterError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is worth retrying
func IsRetryable(err error) bool {
	var pErr *PrinterError
	if errors.As(err, &pErr) {
		return pErr.Retryable
	}
	return false
}

// IsRPCError reports whether err is a JSON-RPC error returned by Moonraker
func IsRPCError(err error) bool {
	var pErr *PrinterError
	return errors.As(err, &pErr) && pErr.Type == ErrTypeRPC
}

// ClassifyNetworkError analyzes a dial or transport error
func ClassifyNetworkError(err error, host string) *PrinterError {
	if err == nil {
		return nil
	}

	if errors.Is(err, websocket.ErrBadHandshake) {
		return &PrinterError{
			Type:    ErrTypeAuth,
			Message: "websocket handshake rejected (check moonraker.api_key)",
			Host:    host,
			Err:     err,
		}
	}

	if os.IsTimeout(err) {
		return &PrinterError{
			Type:      ErrTypeTimeout,
			Message:   "Request timed out",
			Host:      host,
			Err:       err,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &PrinterError{
			Type:      ErrTypeDNS,
			Message:   fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Host:      host,
			Err:       err,
			Retryable: true,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &PrinterError{
				Type:      ErrTypeConnectionRefused,
				Message:   "Moonraker refused connection",
				Host:      host,
				Err:       err,
				Retryable: true,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &PrinterError{Type: ErrTypeNetwork, Message: "Host unreachable", Host: host, Err: err, Retryable: true}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &PrinterError{Type: ErrTypeNetwork, Message: "Network unreachable", Host: host, Err: err, Retryable: true}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err, host)
	}

	return &PrinterError{
		Type:      ErrTypeNetwork,
		Message:   "Network error occurred",
		Host:      host,
		Err:       err,
		Retryable: true,
	}
}
