package showdown

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures. They are always returned wrapped in a *ValidationError.
var (
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrTooFewProviders   = errors.New("at least 2 providers must be selected")
	ErrDuplicateProvider = errors.New("provider selected more than once")
	ErrRequestInFlight   = errors.New("a comparison is already in progress")
	ErrUnknownProvider   = errors.New("unknown provider")
)

var (
	// ErrProviderNotRegistered is reported for a provider id with no generator behind it.
	ErrProviderNotRegistered = errors.New("provider not registered")

	// ErrNoImage is reported when a provider answers without any image.
	ErrNoImage = errors.New("provider returned no image")
)

// DefaultFailureMessage is shown when a failed comparison carries no message of its own.
const DefaultFailureMessage = "Failed to generate images"

// ValidationError is returned when a comparison cannot be started.
// It is recovered locally and surfaced to the user as a message.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func invalid(err error, format string, args ...any) *ValidationError {
	if format == "" {
		return &ValidationError{Err: err}
	}
	return &ValidationError{Err: fmt.Errorf("%w: "+format, append([]any{err}, args...)...)}
}

// RequestFailure is returned when the comparison call as a whole fails: the
// endpoint answered success=false, or the transport itself failed.
type RequestFailure struct {
	// Message is the user-facing text, as reported by the endpoint when it gave one.
	Message string

	// StatusCode is the HTTP status of the response, 0 if none was received.
	StatusCode int

	Err error
}

func (e *RequestFailure) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return DefaultFailureMessage
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// IsRequestFailure checks if an error is a RequestFailure.
func IsRequestFailure(err error) bool {
	var rf *RequestFailure
	return errors.As(err, &rf)
}

// RateLimitError is returned when a provider's rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Provider   string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Provider, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// failureMessage picks the text a session shows for a failed comparison.
func failureMessage(err error) string {
	var rf *RequestFailure
	if errors.As(err, &rf) && rf.Message != "" {
		return rf.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return DefaultFailureMessage
}
