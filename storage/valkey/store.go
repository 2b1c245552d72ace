package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/signkit/oauth1-provider/storage"
)

const (
	// DefaultKeyPrefix is the default prefix for all Valkey keys
	DefaultKeyPrefix = "oauth1:"

	// tokenKeyLogLength is the number of characters to include when logging token keys
	tokenKeyLogLength = 8

	// connectionVerifyTimeout is the timeout for initial connection verification
	connectionVerifyTimeout = 5 * time.Second
)

// Config holds configuration for the Valkey storage backend.
type Config struct {
	// Address is the Valkey server address (required), e.g., "localhost:6379"
	Address string

	// Password is the optional password for Valkey authentication
	Password string

	// DB is the optional database number (default 0)
	DB int

	// KeyPrefix is the prefix for all keys (default "oauth1:")
	KeyPrefix string

	// TLS is the optional TLS configuration for encrypted connections
	TLS *tls.Config

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger
}

// Store is a Valkey-backed implementation of all storage interfaces.
type Store struct {
	client valkeygo.Client
	prefix string
	logger *slog.Logger
}

// Compile-time interface checks to ensure Store implements all storage interfaces
var (
	_ storage.ConsumerStore = (*Store)(nil)
	_ storage.TokenStore    = (*Store)(nil)
	_ storage.NonceStore    = (*Store)(nil)
	_ storage.Store         = (*Store)(nil)
)

// New creates a new Valkey-backed storage instance.
// Returns an error if the connection cannot be established.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	client, err := valkeygo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	logger.Info("Connected to Valkey storage",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", prefix)

	return &Store{
		client: client,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Close closes the Valkey client connection.
func (s *Store) Close() {
	s.client.Close()
	s.logger.Info("Valkey storage connection closed")
}

// SetLogger sets a custom logger for the store.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// ============================================================
// Key Schema
// ============================================================

// consumerKey returns the key for a consumer: {prefix}consumer:{key}
func (s *Store) consumerKey(key string) string {
	return fmt.Sprintf("%sconsumer:%s", s.prefix, key)
}

// requestTokenKey returns the key for a request token: {prefix}request:{key}
func (s *Store) requestTokenKey(key string) string {
	return fmt.Sprintf("%srequest:%s", s.prefix, key)
}

// accessTokenKey returns the key for an access token: {prefix}access:{key}
func (s *Store) accessTokenKey(key string) string {
	return fmt.Sprintf("%saccess:%s", s.prefix, key)
}

// nonceKey returns the key for a nonce digest: {prefix}nonce:{digest}
func (s *Store) nonceKey(digest string) string {
	return fmt.Sprintf("%snonce:%s", s.prefix, digest)
}

// calculateTTL returns the remaining lifetime of a record expiring at t.
func calculateTTL(t time.Time) time.Duration {
	return time.Until(t)
}

// isNilError checks if the error indicates a nil/not-found result from Valkey.
// Uses the valkey-go library's built-in nil detection for robustness.
func isNilError(err error) bool {
	return valkeygo.IsValkeyNil(err)
}

// ============================================================
// Lua Scripts for Atomic Operations
// ============================================================

// luaAtomicAuthorizeRequestToken transitions a pending request token to
// authorized, exactly once.
//
// KEYS[1]: request token key
// ARGV[1]: current unix time
// ARGV[2]: user ID
// ARGV[3]: verifier
//
// Returns:
//   - 'NOT_FOUND' when the token does not exist
//   - 'EXPIRED' when the token lifetime has passed
//   - 'ALREADY_AUTHORIZED' when the transition already happened
//   - the updated JSON record on success
//
// The stored record keeps its TTL (KEEPTTL), so authorization never
// extends a token's lifetime.
const luaAtomicAuthorizeRequestToken = `
local data = redis.call('GET', KEYS[1])
if not data then
    return 'NOT_FOUND'
end

local token = cjson.decode(data)

local now = tonumber(ARGV[1])
local expiresAt = tonumber(token.expires_at)
if expiresAt and expiresAt > 0 and now > expiresAt then
    return 'EXPIRED'
end

if token.authorized then
    return 'ALREADY_AUTHORIZED'
end

token.authorized = true
token.user_id = ARGV[2]
token.verifier = ARGV[3]

local updated = cjson.encode(token)
redis.call('SET', KEYS[1], updated, 'KEEPTTL')

return updated
`

// luaSetRequestTokenCallback records a callback on a request token if it
// does not already carry one. First write wins.
//
// KEYS[1]: request token key
// ARGV[1]: current unix time
// ARGV[2]: callback
//
// Returns 'NOT_FOUND', 'EXPIRED', or the (possibly unchanged) JSON record.
const luaSetRequestTokenCallback = `
local data = redis.call('GET', KEYS[1])
if not data then
    return 'NOT_FOUND'
end

local token = cjson.decode(data)

local now = tonumber(ARGV[1])
local expiresAt = tonumber(token.expires_at)
if expiresAt and expiresAt > 0 and now > expiresAt then
    return 'EXPIRED'
end

if not token.callback or token.callback == '' then
    token.callback = ARGV[2]
    data = cjson.encode(token)
    redis.call('SET', KEYS[1], data, 'KEEPTTL')
end

return data
`

// luaAtomicConsumeRequestToken retrieves and deletes a request token in
// one step, so only one concurrent exchange can succeed.
//
// KEYS[1]: request token key
// ARGV[1]: current unix time
//
// Returns 'NOT_FOUND', 'EXPIRED', or the JSON record that was deleted.
const luaAtomicConsumeRequestToken = `
local data = redis.call('GET', KEYS[1])
if not data then
    return 'NOT_FOUND'
end

local token = cjson.decode(data)

local now = tonumber(ARGV[1])
local expiresAt = tonumber(token.expires_at)
if expiresAt and expiresAt > 0 and now > expiresAt then
    redis.call('DEL', KEYS[1])
    return 'EXPIRED'
end

redis.call('DEL', KEYS[1])

return data
`
