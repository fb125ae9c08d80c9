package errors

import (
	"fmt"
	"net/http"
	"time"
)

// NotFoundError is a lookup that matched nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError is caller input that was rejected before any I/O.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError is a non-2xx answer from a remote service. Its Is method maps
// 401/403 to ErrAPIKeyInvalid, 429 to ErrRateLimited and 5xx to
// ErrProviderUnavailable.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("API error from %s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("API error from %s (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is classifies the status code.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimited
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return target == ErrAPIKeyInvalid
	case e.StatusCode >= http.StatusInternalServerError:
		return target == ErrProviderUnavailable
	default:
		return false
	}
}

// NewAPIError creates an APIError.
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{Provider: provider, StatusCode: statusCode, Message: message}
}

// RateLimitError is a 429 answer. RetryAfter is zero when the server did
// not send a usable Retry-After header.
type RateLimitError struct {
	Provider   string
	Endpoint   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return "rate limited by " + e.Provider
	}
	return fmt.Sprintf("rate limited by %s, retry after %s", e.Provider, e.RetryAfter)
}

// Is matches ErrRateLimited.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// NewRateLimitError creates a RateLimitError.
func NewRateLimitError(provider, endpoint string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Provider: provider, Endpoint: endpoint, RetryAfter: retryAfter}
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Provider string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s (%s): %v", e.Provider, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrProviderUnavailable.
func (e *TransportError) Is(target error) bool { return target == ErrProviderUnavailable }

// NewTransportError creates a TransportError.
func NewTransportError(provider, endpoint string, err error) *TransportError {
	return &TransportError{Provider: provider, Endpoint: endpoint, Err: err}
}

// AuthenticationError is missing or unusable credentials. It matches
// ErrAPIKeyRequired.
type AuthenticationError struct {
	Provider string
	Method   string // api_key, client_credentials, bearer
	Message  string
	Err      error
}

func (e *AuthenticationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error for %s (%s): %s", e.Provider, e.Method, e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Is matches ErrAPIKeyRequired.
func (e *AuthenticationError) Is(target error) bool { return target == ErrAPIKeyRequired }

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(provider, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{Provider: provider, Method: method, Message: message, Err: err}
}

// ConfigError is an invalid or unreadable configuration.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError is data that could not be decoded.
type ParseError struct {
	Format  string // json, yaml, form
	File    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
	}
	return fmt.Sprintf("parse error in %s %s: %s", e.Format, e.File, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError creates a ParseError.
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError is a failed filesystem operation.
type IOError struct {
	Operation string // read, write, create, remove, rename
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError creates an IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// ResourceError is a failed operation on a named resource such as the
// store or a record.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Err       error
}

func (e *ResourceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Resource, e.Err)
	}
	return fmt.Sprintf("failed to %s %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// NewResourceError creates a ResourceError.
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}
