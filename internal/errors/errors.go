// Package errors defines the error kinds raised on the request path and
// their mapping to HTTP statuses and response return codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error raised during request handling.
type Kind int

const (
	// KindInternal is the fallback for unclassified failures.
	KindInternal Kind = iota
	// KindNotFound covers unknown services, deactivated or unknown
	// actions, and missing records.
	KindNotFound
	// KindUnauthenticated means no valid caller identity was present.
	KindUnauthenticated
	// KindUnauthorized means the caller lacks a required permission.
	KindUnauthorized
	// KindInvalidData means the payload failed validation.
	KindInvalidData
)

// String returns the canonical code for the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindInvalidData:
		return "INVALID_DATA"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps the kind to an HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidData:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// APIError is a structured error carried from the point of failure to
// the transport layer, where it is rendered as a response envelope.
type APIError struct {
	Kind    Kind
	Message string
	Details any
	cause   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *APIError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details to the error.
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NotFound creates a NotFound error.
func NotFound(format string, args ...any) *APIError {
	return &APIError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated creates an Unauthenticated error.
func Unauthenticated(message string) *APIError {
	if message == "" {
		message = "Authentication required"
	}
	return &APIError{Kind: KindUnauthenticated, Message: message}
}

// Unauthorized creates an Unauthorized error.
func Unauthorized(format string, args ...any) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// InvalidData creates an InvalidData error.
func InvalidData(format string, args ...any) *APIError {
	return &APIError{Kind: KindInvalidData, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *APIError {
	return &APIError{Kind: KindInternal, Message: message, cause: cause}
}

// KindOf classifies any error. Non-APIError values classify as internal.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// AsAPIError extracts the APIError from err, wrapping unclassified
// errors as internal.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("An unexpected error occurred", err)
}

// FieldError describes a single failed payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidFields creates an InvalidData error carrying per-field details.
func InvalidFields(fields []FieldError) *APIError {
	return InvalidData("Request validation failed").WithDetails(fields)
}
