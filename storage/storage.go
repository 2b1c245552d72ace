package storage

import (
	"context"
	"time"
)

// TokenKind distinguishes the two token variants held by a TokenStore.
type TokenKind string

const (
	// TokenKindRequest is a short-lived pre-authorization token.
	TokenKindRequest TokenKind = "request"

	// TokenKindAccess is a durable post-authorization credential.
	TokenKindAccess TokenKind = "access"
)

// Consumer is a registered third-party client application.
// The secret is stored in plaintext because it is the signing key for
// every request the consumer makes; it can never be one-way hashed.
type Consumer struct {
	Key       string
	Secret    string
	CreatedAt time.Time
}

// RequestToken is a temporary credential driving the three-legged
// authorization handshake. It expires after a fixed retention period
// regardless of state; expiry is enforced by the storage backend.
type RequestToken struct {
	Key         string
	Secret      string
	ConsumerKey string

	// Authorized flips to true exactly once, when the resource owner
	// grants access. The verifier is generated at that transition.
	Authorized bool
	UserID     string
	Verifier   string

	// Callback is the client-declared redirect target, or "oob".
	// First write wins; it is never overwritten once set.
	Callback string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// AccessToken is a durable credential issued by redeeming an authorized
// request token. It remains valid until explicitly deleted.
type AccessToken struct {
	Key         string
	Secret      string
	ConsumerKey string
	UserID      string
	CreatedAt   time.Time
}

// ConsumerStore persists consumer key/secret pairs.
// All methods accept context.Context for tracing and cancellation.
type ConsumerStore interface {
	// SaveConsumer persists a consumer record
	SaveConsumer(ctx context.Context, consumer *Consumer) error

	// GetConsumer retrieves a consumer by key.
	// Returns ErrConsumerNotFound if no such consumer exists.
	GetConsumer(ctx context.Context, key string) (*Consumer, error)

	// DeleteConsumer removes a consumer. Tokens bound to the consumer are
	// not swept; they become invalid at lookup time instead.
	DeleteConsumer(ctx context.Context, key string) error
}

// TokenStore persists request and access tokens.
//
// Request tokens carry an ExpiresAt deadline that the backend must honor:
// expired tokens are not returned by reads and are eventually removed by
// the backend's own expiry mechanism (TTL or cleanup sweep). Access tokens
// never expire.
//
// All methods accept context.Context for tracing and cancellation.
type TokenStore interface {
	// SaveRequestToken persists a request token with its expiry deadline
	SaveRequestToken(ctx context.Context, token *RequestToken) error

	// GetRequestToken retrieves a request token by key.
	// Returns ErrTokenNotFound if absent and ErrTokenExpired if past its
	// deadline.
	GetRequestToken(ctx context.Context, key string) (*RequestToken, error)

	// DeleteRequestToken removes a request token
	DeleteRequestToken(ctx context.Context, key string) error

	// AtomicAuthorizeRequestToken atomically transitions a pending request
	// token to authorized, binding the resource owner and the one-time
	// verifier. Returns the updated token.
	//
	// Returns ErrTokenNotFound if absent, ErrTokenExpired if past its
	// deadline, and ErrTokenAlreadyAuthorized if the token has already
	// been authorized. The check-and-set MUST be atomic: two concurrent
	// authorize calls on the same token must not both succeed.
	AtomicAuthorizeRequestToken(ctx context.Context, key, userID, verifier string) (*RequestToken, error)

	// SetRequestTokenCallback records the callback target if none is set
	// yet (first write wins). The returned token reflects the stored
	// state, which may carry a previously set callback.
	SetRequestTokenCallback(ctx context.Context, key, callback string) (*RequestToken, error)

	// AtomicConsumeRequestToken atomically retrieves and deletes a request
	// token, implementing one-shot redemption at exchange time.
	//
	// SECURITY: This operation MUST be atomic - under concurrent exchange
	// attempts for the same token, exactly one caller receives the token;
	// all others receive ErrTokenNotFound.
	AtomicConsumeRequestToken(ctx context.Context, key string) (*RequestToken, error)

	// SaveAccessToken persists an access token (no expiry)
	SaveAccessToken(ctx context.Context, token *AccessToken) error

	// GetAccessToken retrieves an access token by key.
	// Returns ErrTokenNotFound if absent.
	GetAccessToken(ctx context.Context, key string) (*AccessToken, error)

	// DeleteAccessToken removes an access token (explicit revocation)
	DeleteAccessToken(ctx context.Context, key string) error
}

// NonceStore records replay-guard entries keyed by a request digest.
type NonceStore interface {
	// CheckAndRecordNonce records the digest with the given retention TTL
	// if it has not been seen before. Returns ErrNonceAlreadyUsed if the
	// digest is already present.
	//
	// SECURITY: The check-then-record sequence MUST be a single atomic
	// set-if-absent; a separate read followed by a write admits a race
	// where two requests with an identical nonce both pass.
	CheckAndRecordNonce(ctx context.Context, digest string, ttl time.Duration) error
}

// Store combines the three persistence capabilities the provider needs.
// Backends implement all of them over a single connection.
type Store interface {
	ConsumerStore
	TokenStore
	NonceStore
}
