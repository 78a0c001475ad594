package api

// errors.go defines the error codes used by the platform HTTP APIs

import "fmt"

// Error represents a structured error from an API handler or domain package.
type Error struct {
	// code determines the HTTP status the error maps to
	code ErrorCode

	// message is a human-readable error message returned to the client
	// in the "detail" field of the error response
	message string

	// wrapped is the optional underlying error (logged server-side, never
	// returned to the client)
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

// Detail returns the client-facing message without the wrapped cause.
func (e *Error) Detail() string  { return e.message }
func (e *Error) Code() ErrorCode { return e.code }
func (e *Error) Unwrap() error   { return e.wrapped }

// ErrorCode classifies API errors. Each code maps to one HTTP status
// (see MapErrorToResponse).
type ErrorCode int

const (
	// ErrCodeValidation is used for missing or malformed request fields
	// and business-rule violations on input (maps to 400).
	ErrCodeValidation ErrorCode = iota + 1

	// ErrCodeUnauthorized is used when a bearer token is invalid, expired,
	// of the wrong type, or blacklisted (maps to 401).
	ErrCodeUnauthorized

	// ErrCodeForbidden is used when the caller is authenticated but lacks
	// the required role, or when no credentials were supplied (maps to 403).
	ErrCodeForbidden

	// ErrCodeNotFound is used when the requested resource does not exist (maps to 404).
	ErrCodeNotFound

	// ErrCodeConflict is used for duplicate resources and invalid state
	// transitions (maps to 409).
	ErrCodeConflict

	// ErrCodeRequestTooLarge is used when the request body exceeds the
	// configured limit - only used in the middleware (maps to 413).
	ErrCodeRequestTooLarge

	// ErrCodeUnprocessable is used when the request is well-formed but the
	// content cannot be processed, e.g. an unparseable equation (maps to 422).
	ErrCodeUnprocessable

	// ErrCodeRateLimitExceeded is used when the global or login rate limit
	// is exceeded (maps to 429).
	ErrCodeRateLimitExceeded

	// ErrCodeInternal is used for unexpected server-side failures (maps to 500).
	ErrCodeInternal
)

// NewValidationError creates an error for invalid request input.
// Use this for missing required fields, bad formats, and input values
// that violate business rules.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &Error{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &Error{code: ErrCodeValidation, message: msg, wrapped: err}
}

// NewUnauthorizedError creates an error for failed authentication.
// Use this for invalid, expired or blacklisted tokens and failed logins.
//
// The returned error will have code ErrCodeUnauthorized.
func NewUnauthorizedError(msg string) error {
	return &Error{code: ErrCodeUnauthorized, message: msg}
}

// NewForbiddenError creates an error for insufficient permissions.
// Use this when the caller's role does not allow the operation, or when
// the Authorization header is missing entirely.
//
// The returned error will have code ErrCodeForbidden.
func NewForbiddenError(msg string) error {
	return &Error{code: ErrCodeForbidden, message: msg}
}

// NewNotFoundError creates an error for a missing resource.
//
// The returned error will have code ErrCodeNotFound.
func NewNotFoundError(msg string) error {
	return &Error{code: ErrCodeNotFound, message: msg}
}

// NewConflictError creates an error for duplicates and frozen state
// transitions (e.g. completing a cancelled transaction).
//
// The returned error will have code ErrCodeConflict.
func NewConflictError(msg string) error {
	return &Error{code: ErrCodeConflict, message: msg}
}

// NewUnprocessableError creates an error for well-formed requests whose
// content cannot be processed.
//
// The returned error will have code ErrCodeUnprocessable.
func NewUnprocessableError(msg string) error {
	return &Error{code: ErrCodeUnprocessable, message: msg}
}

// NewRateLimitError creates a rate limit exceeded error.
//
// The returned error will have code ErrCodeRateLimitExceeded.
func NewRateLimitError(msg string) error {
	return &Error{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// Use this when the request body exceeds the maximum allowed size.
//
// The returned error will have code ErrCodeRequestTooLarge.
func NewRequestTooLargeError(msg string) error {
	return &Error{code: ErrCodeRequestTooLarge, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
//
// The returned error will have code ErrCodeInternal.
func NewInternalError(msg string) error {
	return &Error{code: ErrCodeInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for database failures, encoding failures and other errors that
// should not normally occur.
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &Error{code: ErrCodeInternal, message: msg, wrapped: err}
}
