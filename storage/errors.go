package storage

import "errors"

// Sentinel errors returned by storage backends. Callers should match with
// errors.Is; backends may wrap these with additional context using %w.
var (
	// ErrConsumerNotFound indicates no consumer exists for the given key
	ErrConsumerNotFound = errors.New("consumer not found")

	// ErrTokenNotFound indicates no token exists for the given key.
	// For atomic operations this may mean the token was already consumed
	// by a concurrent request.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired indicates the request token outlived its retention
	// period
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenAlreadyAuthorized indicates an authorize transition was
	// attempted on a token that has already been authorized
	ErrTokenAlreadyAuthorized = errors.New("request token already authorized")

	// ErrNonceAlreadyUsed indicates the nonce digest has been recorded
	// within the retention window
	ErrNonceAlreadyUsed = errors.New("nonce already used")
)
