// ============================================================================
// backend/internal/shared/errors.go
// Structured service error type with HTTP status mapping
// ============================================================================

package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by all services. The API layer maps these to HTTP
// statuses; services never import net/http for error signaling.
const (
	CodeInvalidArgument    = "invalid_argument"
	CodeNotFound           = "not_found"
	CodeAlreadyExists      = "already_exists"
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission_denied"
	CodeFailedPrecondition = "failed_precondition"
	CodeConflict           = "conflict"
	CodeUnavailable        = "unavailable"
	CodeInternal           = "internal"
)

// ServiceError is the error type services return across package boundaries.
type ServiceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error code to an HTTP status code.
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeFailedPrecondition:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================================
// Constructors
// ============================================================================

// NewError creates a ServiceError with the given code and formatted message.
func NewError(code, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a ServiceError that wraps an underlying cause.
func WrapError(code string, cause error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// ErrInvalidArgument creates an invalid_argument error.
func ErrInvalidArgument(format string, args ...interface{}) *ServiceError {
	return NewError(CodeInvalidArgument, format, args...)
}

// ErrNotFound creates a not_found error.
func ErrNotFound(format string, args ...interface{}) *ServiceError {
	return NewError(CodeNotFound, format, args...)
}

// ErrAlreadyExists creates an already_exists error.
func ErrAlreadyExists(format string, args ...interface{}) *ServiceError {
	return NewError(CodeAlreadyExists, format, args...)
}

// ErrUnauthenticated creates an unauthenticated error.
func ErrUnauthenticated(format string, args ...interface{}) *ServiceError {
	return NewError(CodeUnauthenticated, format, args...)
}

// ErrPermissionDenied creates a permission_denied error.
func ErrPermissionDenied(format string, args ...interface{}) *ServiceError {
	return NewError(CodePermissionDenied, format, args...)
}

// ErrFailedPrecondition creates a failed_precondition error.
func ErrFailedPrecondition(format string, args ...interface{}) *ServiceError {
	return NewError(CodeFailedPrecondition, format, args...)
}

// ErrInternal creates an internal error wrapping a cause.
func ErrInternal(cause error, format string, args ...interface{}) *ServiceError {
	return WrapError(CodeInternal, cause, format, args...)
}

// AsServiceError extracts a *ServiceError from an error chain. Errors that are
// not ServiceErrors are reported as internal.
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return &ServiceError{Code: CodeInternal, Message: "internal server error", cause: err}
}
