// Package domain defines the error taxonomy for the identification feature.
package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel causes wrapped by the typed errors below.
var (
	// ErrNoImage is returned when a request carries no image.
	ErrNoImage = errors.New("no image attached")

	// ErrImageTooLarge is returned when an image exceeds the configured maximum size.
	ErrImageTooLarge = errors.New("image exceeds maximum size")

	// ErrUnsupportedMediaType is returned when an image type is not in the accepted set.
	ErrUnsupportedMediaType = errors.New("unsupported image type")

	// ErrNoResults is returned when a structured provider payload contains no result entries.
	ErrNoResults = errors.New("no identification results")

	// ErrNoProviders is returned when the orchestrator has no provider configured.
	ErrNoProviders = errors.New("no providers configured")
)

// Kind is a stable, client-safe classification of an error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindParse      Kind = "parse"
	KindResource   Kind = "resource"
	KindInternal   Kind = "internal"
)

// ValidationError reports a problem with the uploaded file itself. It is never retried.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation: %v", e.Err)
	}
	return fmt.Sprintf("validation: %v: %s", e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps a sentinel cause with an optional detail.
func NewValidationError(cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Err: cause, Detail: fmt.Sprintf(format, args...)}
}

// TransportError reports a network failure, timeout or non-success response from a provider.
// StatusCode is zero when no HTTP response was received.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same call may succeed.
// Rate limiting, server errors and network failures qualify; client errors do not.
func (e *TransportError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	}
	return !errors.Is(e.Err, context.Canceled)
}

// ParseError reports a provider payload that does not have the expected shape.
type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResourceError reports a failure to store, read or delete the transient image file.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// KindOf classifies err for logging and client responses.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		te *TransportError
		pe *ParseError
		re *ResourceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &re):
		return KindResource
	}
	return KindInternal
}
