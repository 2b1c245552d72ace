package oauth1

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestProviderError_Error(t *testing.T) {
	err := NewProviderError(ErrorCodeUnknownToken, "no such token", http.StatusUnauthorized)

	want := "unknown_token: no such token"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrStorage(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
	if errors.Is(err, errors.New("connection refused")) {
		t.Error("errors.Is should not match a distinct error value")
	}
}

func TestProviderError_Status(t *testing.T) {
	tests := []struct {
		err    *ProviderError
		status int
	}{
		{ErrUnknownConsumer("x"), http.StatusUnauthorized},
		{ErrUnknownToken("x"), http.StatusUnauthorized},
		{ErrUnauthorizedToken("x"), http.StatusUnauthorized},
		{ErrVerifierMismatch("x"), http.StatusUnauthorized},
		{ErrReplayedRequest("x"), http.StatusUnauthorized},
		{ErrSignatureMismatch("x"), http.StatusUnauthorized},
		{ErrInvalidState("x"), http.StatusBadRequest},
		{ErrInvalidRequest("x"), http.StatusBadRequest},
		{ErrConfigurationError("x"), http.StatusBadRequest},
		{ErrRateLimitExceeded("x"), http.StatusTooManyRequests},
		{ErrStorage(errors.New("x")), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"provider error", ErrUnknownToken("x"), ErrorCodeUnknownToken},
		{"wrapped provider error", fmt.Errorf("verify: %w", ErrSignatureMismatch("x")), ErrorCodeSignatureMismatch},
		{"plain error", errors.New("x"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrStorage(errors.New("timeout"))) {
		t.Error("storage failures should be retryable")
	}
	if IsRetryable(ErrSignatureMismatch("x")) {
		t.Error("signature mismatches should not be retryable")
	}
	if IsRetryable(errors.New("x")) {
		t.Error("untyped errors should not be retryable")
	}
}
