// Package errors defines the typed errors shared by the catalog loader,
// the remote sources and the local store. Callers test them with the
// Is* predicates or KindOf rather than matching messages.
package errors

import (
	"errors"
)

// New, Is, As and Unwrap forward to the standard library so callers need
// only this import.
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Sentinels matched by the typed errors' Is methods.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAPIKeyRequired      = errors.New("API key required")
	ErrAPIKeyInvalid       = errors.New("API key invalid")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
)

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err is bad caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAPIKeyError reports whether credentials were missing or rejected.
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired) || errors.Is(err, ErrAPIKeyInvalid)
}

// IsRateLimited reports whether a server answered 429.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsProviderUnavailable reports whether a remote could not be reached or
// answered 5xx.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// WrapIO wraps err as an IOError. A nil err stays nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps err as a ResourceError. A nil err stays nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps err as a ParseError. A nil err stays nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapTransport wraps err as a TransportError. A nil err stays nil.
func WrapTransport(provider, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return NewTransportError(provider, endpoint, err)
}
