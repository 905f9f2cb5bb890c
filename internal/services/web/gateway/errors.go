package gateway

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code surfaced by the backend boundary.
type Code string

const (
	CodeInvalidCredentials     Code = "invalid_credentials"
	CodeMFARequired            Code = "mfa_required"
	CodeInvalidMFACode         Code = "invalid_mfa_code"
	CodeAuthenticationRequired Code = "authentication_required"
	CodeNotFound               Code = "not_found"
	CodeDecodeFailed           Code = "decode_failed"
	CodeUnavailable            Code = "unavailable"
	CodeInternal               Code = "internal"
)

// Error is the domain error type produced at the repository boundary.
// Backend and transport failures are caught here and re-thrown in this
// shape with a human-readable message; presentation is the UI layer's job.
type Error struct {
	Code    Code   // machine-readable error code
	Message string // human-readable message
	Status  int    // HTTP status observed, zero for transport failures
	Cause   error  // wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a domain error with a code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a domain error that wraps an underlying cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the domain code from an error chain.
func CodeOf(err error) Code {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Code
	}
	return CodeInternal
}

// codeForStatus maps an HTTP response status to a domain code when the
// body carried no usable code of its own.
func codeForStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized:
		return CodeAuthenticationRequired
	case http.StatusForbidden:
		return CodeAuthenticationRequired
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidCredentials
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}
