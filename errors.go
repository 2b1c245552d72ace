package oauth1

import (
	"errors"
	"fmt"
	"net/http"
)

// Provider error codes as constants
const (
	ErrorCodeUnknownConsumer    = "unknown_consumer"
	ErrorCodeUnknownToken       = "unknown_token"
	ErrorCodeUnauthorizedToken  = "unauthorized_token"
	ErrorCodeVerifierMismatch   = "verifier_mismatch"
	ErrorCodeReplayedRequest    = "replayed_request"
	ErrorCodeSignatureMismatch  = "signature_mismatch"
	ErrorCodeInvalidState       = "invalid_state"
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeStorageError       = "storage_error"
	ErrorCodeConfigurationError = "configuration_error"
	ErrorCodeRateLimitExceeded  = "rate_limit_exceeded"
)

// ProviderError represents a typed failure from the provider core. The
// HTTP layer maps Code and Status to a response; Description is intended
// for operators and the interactive authorization flow, not for
// third-party API clients.
type ProviderError struct {
	Code        string // machine-readable error code (e.g. "unknown_token")
	Description string // human-readable error description
	Status      int    // suggested HTTP status code
	Err         error  // underlying cause, if any
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As matching.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error
func NewProviderError(code, description string, status int) *ProviderError {
	return &ProviderError{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common provider errors as reusable constructors
var (
	// ErrUnknownConsumer indicates no consumer is registered under the
	// presented key
	ErrUnknownConsumer = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeUnknownConsumer, desc, http.StatusUnauthorized)
	}

	// ErrUnknownToken indicates the token is absent, expired, or bound to
	// a different (or deleted) consumer
	ErrUnknownToken = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeUnknownToken, desc, http.StatusUnauthorized)
	}

	// ErrUnauthorizedToken indicates an exchange was attempted on a token
	// that was never authorized, or that no longer exists
	ErrUnauthorizedToken = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeUnauthorizedToken, desc, http.StatusUnauthorized)
	}

	// ErrVerifierMismatch indicates the presented verifier is not the one
	// issued at authorization time
	ErrVerifierMismatch = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeVerifierMismatch, desc, http.StatusUnauthorized)
	}

	// ErrReplayedRequest indicates a nonce reuse or a timestamp outside
	// the retention window
	ErrReplayedRequest = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeReplayedRequest, desc, http.StatusUnauthorized)
	}

	// ErrSignatureMismatch indicates the request signature did not verify
	ErrSignatureMismatch = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeSignatureMismatch, desc, http.StatusUnauthorized)
	}

	// ErrInvalidState indicates an illegal state transition, such as
	// re-authorizing an already-authorized token
	ErrInvalidState = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeInvalidState, desc, http.StatusBadRequest)
	}

	// ErrInvalidRequest indicates the request is malformed or missing
	// required parameters
	ErrInvalidRequest = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
	}

	// ErrConfigurationError indicates a request that is only acceptable
	// under a different configuration, such as PLAINTEXT signatures over
	// an unencrypted transport
	ErrConfigurationError = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeConfigurationError, desc, http.StatusBadRequest)
	}

	// ErrRateLimitExceeded indicates the caller exhausted its rate budget
	ErrRateLimitExceeded = func(desc string) *ProviderError {
		return NewProviderError(ErrorCodeRateLimitExceeded, desc, http.StatusTooManyRequests)
	}
)

// ErrStorage wraps a persistence failure. This is the only error class a
// caller may reasonably retry; all other codes are permanent for the
// given request parameters.
func ErrStorage(err error) *ProviderError {
	return &ProviderError{
		Code:        ErrorCodeStorageError,
		Description: "storage operation failed",
		Status:      http.StatusServiceUnavailable,
		Err:         err,
	}
}

// CodeOf returns the provider error code carried by err, or the empty
// string if err is not a ProviderError.
func CodeOf(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsRetryable reports whether the failure may be transient. Only storage
// failures qualify; every other code is permanent for the presented
// parameters and must not be retried with them.
func IsRetryable(err error) bool {
	return CodeOf(err) == ErrorCodeStorageError
}
