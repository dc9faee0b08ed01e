package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Cache errors
	ErrorTypeCacheMiss     ErrorType = "CACHE_MISS"
	ErrorTypeSerialization ErrorType = "SERIALIZATION"

	// Request errors
	ErrorTypeInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeRateLimit      ErrorType = "RATE_LIMIT"

	// Infrastructure errors
	ErrorTypeBackendFetch     ErrorType = "BACKEND_FETCH"
	ErrorTypeStoreUnavailable ErrorType = "STORE_UNAVAILABLE"
	ErrorTypeGateway          ErrorType = "GATEWAY"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// ErrCacheMiss signals a key that is absent or expired.
// It is a normal outcome, never surfaced to callers as a failure.
var ErrCacheMiss = &AppError{
	Type:       ErrorTypeCacheMiss,
	Message:    "cache miss",
	HTTPStatus: http.StatusAccepted,
}

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches two AppErrors by type so errors.Is(err, ErrCacheMiss) works on wrapped copies.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// NewInvalidRequestError creates an error for malformed gateway input
func NewInvalidRequestError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(limit float64, burst int) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    fmt.Sprintf("rate limit exceeded: %.0f requests per second (burst %d)", limit, burst),
		HTTPStatus: http.StatusTooManyRequests,
		StackTrace: captureStackTrace(),
	}
}

// NewBackendFetchError wraps a failure of the data backend
func NewBackendFetchError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeBackendFetch,
		Message:    fmt.Sprintf("backend fetch '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}

// NewSerializationError wraps a value that could not be encoded or decoded
func NewSerializationError(key string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeSerialization,
		Message:    fmt.Sprintf("cannot serialize cache entry '%s'", key),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewStoreUnavailableError wraps a failed key-value store command
func NewStoreUnavailableError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeStoreUnavailable,
		Message:    fmt.Sprintf("cache store operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewGatewayError wraps a failed call to the cache gateway
func NewGatewayError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeGateway,
		Message:    message,
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsCacheMiss reports whether err signals an absent or expired entry
func IsCacheMiss(err error) bool {
	return IsType(err, ErrorTypeCacheMiss)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsSerialization checks if an error is a serialization error
func IsSerialization(err error) bool {
	return IsType(err, ErrorTypeSerialization)
}
