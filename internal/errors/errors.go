package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig        = "CONFIG"
	ErrTransport     = "TRANSPORT"
	ErrHTTP          = "HTTP"
	ErrDecode        = "DECODE"
	ErrAuth          = "AUTH"
	ErrNotConfigured = "NOT_CONFIGURED"
	ErrSync          = "SYNC"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered for the terminal as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrTransport code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrTransport,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewNotConfigured reports a service that has no credentials or URL yet.
func NewNotConfigured(service string) *Error {
	return &Error{
		Code:       ErrNotConfigured,
		Message:    fmt.Sprintf("%s is not configured", service),
		Suggestion: "Add it with 'homestats config edit'",
	}
}

// NewAuthFailed reports a rejected login exchange.
func NewAuthFailed(service string, cause error) *Error {
	return &Error{
		Code:       ErrAuth,
		Message:    fmt.Sprintf("%s authentication failed", service),
		Suggestion: "Check the password or token with 'homestats test'",
		Cause:      cause,
	}
}

// Transport wraps a network-level failure (DNS, refused connection, TLS).
func Transport(service string, err error) *Error {
	return &Error{
		Code:    ErrTransport,
		Message: fmt.Sprintf("%s request failed", service),
		Cause:   err,
	}
}

// Decode wraps a payload that did not match the expected schema.
func Decode(what string, err error) *Error {
	return &Error{
		Code:    ErrDecode,
		Message: fmt.Sprintf("failed to decode %s", what),
		Cause:   err,
	}
}

// HTTPStatusError carries a non-success HTTP status from an upstream.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d (%s)", e.StatusCode, e.URL)
}

// NewHTTPStatus wraps an unexpected status code from service.
func NewHTTPStatus(service string, code int, url string) *Error {
	return &Error{
		Code:    ErrHTTP,
		Message: fmt.Sprintf("%s returned HTTP %d", service, code),
		Cause:   &HTTPStatusError{StatusCode: code, URL: url},
	}
}

// StatusCode extracts the HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

// Error implements the error interface with the multi-line terminal format.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Summary returns a single-line rendering for logs and status bars.
func (e *Error) Summary() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + Summary(e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var hsErr *Error
	if errors.As(err, &hsErr) {
		return hsErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost structured error, or "" for plain errors.
func CodeOf(err error) string {
	var hsErr *Error
	if errors.As(err, &hsErr) {
		return hsErr.Code
	}
	return ""
}

// Summary renders any error on one line.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var hsErr *Error
	if errors.As(err, &hsErr) {
		return hsErr.Summary()
	}
	return strings.TrimSpace(err.Error())
}
