package errors

import (
	"errors"
	"fmt"
)

// Error represents a typed client error. Status carries the HTTP status of the
// response that produced it, or zero when no response was received.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so predefined errors can be
// matched with errors.Is after Wrap or WithStatus.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Predefined errors for the query client and page binding.
var (
	ErrTransport           = New("TRANSPORT_ERROR", "query request failed")
	ErrDecode              = New("DECODE_ERROR", "response body is not valid JSON")
	ErrQueryRejected       = New("QUERY_REJECTED", "query rejected by server")
	ErrElementNotFound     = New("ELEMENT_NOT_FOUND", "page element not found")
	ErrElementTypeMismatch = New("ELEMENT_TYPE_MISMATCH", "page element has the wrong type")
	ErrDownloadFailed      = New("DOWNLOAD_FAILED", "file download failed")
	ErrInternal            = New("INTERNAL_ERROR", "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithStatus returns a copy of err tagged with the HTTP status and cause.
func WithStatus(err *Error, status int, cause error) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Status = status
	clone.Err = cause
	return &clone
}
