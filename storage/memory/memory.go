// Package memory provides an in-memory implementation of all storage
// interfaces. It is suitable for development, testing, and single-instance
// deployments.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signkit/oauth1-provider/internal/util"
	"github.com/signkit/oauth1-provider/security"
	"github.com/signkit/oauth1-provider/storage"
)

// tokenKeyLogLength is the number of characters to include when logging
// token keys. Enough for debugging without exposing the full credential.
const tokenKeyLogLength = 8

// Store is an in-memory implementation of all storage interfaces.
// It implements ConsumerStore, TokenStore, and NonceStore.
//
// Expiry of request tokens and nonce records is passive: deadlines are
// checked on read, and a background sweep removes entries past their
// deadline so the maps do not grow without bound.
type Store struct {
	mu sync.RWMutex

	consumers     map[string]*storage.Consumer
	requestTokens map[string]*storage.RequestToken
	accessTokens  map[string]*storage.AccessToken
	nonces        map[string]time.Time // digest -> expiry

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          *slog.Logger
}

// Compile-time interface checks to ensure Store implements all storage interfaces
var (
	_ storage.ConsumerStore = (*Store)(nil)
	_ storage.TokenStore    = (*Store)(nil)
	_ storage.NonceStore    = (*Store)(nil)
	_ storage.Store         = (*Store)(nil)
)

// New creates a new in-memory store with default cleanup interval (1 minute).
func New() *Store {
	return NewWithInterval(time.Minute)
}

// NewWithInterval creates a new in-memory store with custom cleanup interval.
// If cleanupInterval is 0 or negative, uses default of 1 minute.
func NewWithInterval(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &Store{
		consumers:       make(map[string]*storage.Consumer),
		requestTokens:   make(map[string]*storage.RequestToken),
		accessTokens:    make(map[string]*storage.AccessToken),
		nonces:          make(map[string]time.Time),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		logger:          slog.Default(),
	}

	go s.cleanupLoop()

	return s
}

// SetLogger sets a custom logger
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// Stop gracefully stops the cleanup goroutine
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// ============================================================
// ConsumerStore Implementation
// ============================================================

// SaveConsumer persists a consumer record
func (s *Store) SaveConsumer(ctx context.Context, consumer *storage.Consumer) error {
	if consumer == nil || consumer.Key == "" {
		return fmt.Errorf("invalid consumer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *consumer
	s.consumers[consumer.Key] = &c
	s.logger.Debug("Saved consumer", "consumer_key", consumer.Key)
	return nil
}

// GetConsumer retrieves a consumer by key
func (s *Store) GetConsumer(ctx context.Context, key string) (*storage.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	consumer, ok := s.consumers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrConsumerNotFound, key)
	}

	c := *consumer
	return &c, nil
}

// DeleteConsumer removes a consumer. Tokens bound to it are left in
// place; lookups reject them once the consumer is gone.
func (s *Store) DeleteConsumer(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.consumers, key)
	s.logger.Debug("Deleted consumer", "consumer_key", key)
	return nil
}

// ============================================================
// TokenStore Implementation
// ============================================================

// SaveRequestToken persists a request token with its expiry deadline
func (s *Store) SaveRequestToken(ctx context.Context, token *storage.RequestToken) error {
	if token == nil || token.Key == "" {
		return fmt.Errorf("invalid request token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := *token
	s.requestTokens[token.Key] = &t
	s.logger.Debug("Saved request token",
		"token_key", util.SafeTruncate(token.Key, tokenKeyLogLength),
		"expires_at", token.ExpiresAt)
	return nil
}

// GetRequestToken retrieves a request token by key
func (s *Store) GetRequestToken(ctx context.Context, key string) (*storage.RequestToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getRequestTokenLocked(key)
}

// getRequestTokenLocked returns a copy of the stored token after the
// expiry check. Caller must hold at least a read lock.
func (s *Store) getRequestTokenLocked(key string) (*storage.RequestToken, error) {
	token, ok := s.requestTokens[key]
	if !ok {
		return nil, fmt.Errorf("%w: request token", storage.ErrTokenNotFound)
	}

	if security.IsExpired(token.ExpiresAt) {
		return nil, fmt.Errorf("%w: request token", storage.ErrTokenExpired)
	}

	t := *token
	return &t, nil
}

// DeleteRequestToken removes a request token
func (s *Store) DeleteRequestToken(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.requestTokens, key)
	s.logger.Debug("Deleted request token", "token_key", util.SafeTruncate(key, tokenKeyLogLength))
	return nil
}

// AtomicAuthorizeRequestToken atomically transitions a pending request
// token to authorized.
//
// SECURITY: The check-and-set runs under the write lock - only ONE
// concurrent authorize call can succeed; later calls observe the
// authorized state and fail with ErrTokenAlreadyAuthorized.
func (s *Store) AtomicAuthorizeRequestToken(ctx context.Context, key, userID, verifier string) (*storage.RequestToken, error) {
	s.mu.Lock() // MUST use write lock for atomic check-and-set
	defer s.mu.Unlock()

	token, ok := s.requestTokens[key]
	if !ok {
		return nil, fmt.Errorf("%w: request token", storage.ErrTokenNotFound)
	}

	if security.IsExpired(token.ExpiresAt) {
		return nil, fmt.Errorf("%w: request token", storage.ErrTokenExpired)
	}

	if token.Authorized {
		return nil, storage.ErrTokenAlreadyAuthorized
	}

	token.Authorized = true
	token.UserID = userID
	token.Verifier = verifier

	s.logger.Debug("Authorized request token",
		"token_key", util.SafeTruncate(key, tokenKeyLogLength))

	t := *token
	return &t, nil
}

// SetRequestTokenCallback records the callback target if none is set yet.
// First write wins; a token that already carries a callback is returned
// unchanged.
func (s *Store) SetRequestTokenCallback(ctx context.Context, key, callback string) (*storage.RequestToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.requestTokens[key]
	if !ok {
		return nil, fmt.Errorf("%w: request token", storage.ErrTokenNotFound)
	}

	if security.IsExpired(token.ExpiresAt) {
		return nil, fmt.Errorf("%w: request token", storage.ErrTokenExpired)
	}

	if token.Callback == "" && callback != "" {
		token.Callback = callback
		s.logger.Debug("Set request token callback",
			"token_key", util.SafeTruncate(key, tokenKeyLogLength))
	}

	t := *token
	return &t, nil
}

// AtomicConsumeRequestToken atomically retrieves and deletes a request
// token for one-shot redemption.
//
// SECURITY: This operation is atomic - only ONE concurrent request can
// succeed. All other concurrent requests receive ErrTokenNotFound.
func (s *Store) AtomicConsumeRequestToken(ctx context.Context, key string) (*storage.RequestToken, error) {
	s.mu.Lock() // MUST use write lock for atomic get-and-delete
	defer s.mu.Unlock()

	token, err := s.getRequestTokenLocked(key)
	if err != nil {
		return nil, err
	}

	delete(s.requestTokens, key)

	s.logger.Debug("Atomically consumed request token",
		"token_key", util.SafeTruncate(key, tokenKeyLogLength))

	return token, nil
}

// SaveAccessToken persists an access token
func (s *Store) SaveAccessToken(ctx context.Context, token *storage.AccessToken) error {
	if token == nil || token.Key == "" {
		return fmt.Errorf("invalid access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := *token
	s.accessTokens[token.Key] = &t
	s.logger.Debug("Saved access token",
		"token_key", util.SafeTruncate(token.Key, tokenKeyLogLength))
	return nil
}

// GetAccessToken retrieves an access token by key
func (s *Store) GetAccessToken(ctx context.Context, key string) (*storage.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.accessTokens[key]
	if !ok {
		return nil, fmt.Errorf("%w: access token", storage.ErrTokenNotFound)
	}

	t := *token
	return &t, nil
}

// DeleteAccessToken removes an access token
func (s *Store) DeleteAccessToken(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accessTokens, key)
	s.logger.Debug("Deleted access token", "token_key", util.SafeTruncate(key, tokenKeyLogLength))
	return nil
}

// ============================================================
// NonceStore Implementation
// ============================================================

// CheckAndRecordNonce records the digest if it has not been seen before.
//
// SECURITY: The check and the record happen under a single write lock -
// two concurrent requests with an identical digest cannot both pass.
func (s *Store) CheckAndRecordNonce(ctx context.Context, digest string, ttl time.Duration) error {
	s.mu.Lock() // MUST use write lock for atomic set-if-absent
	defer s.mu.Unlock()

	// Plain clock comparison: the clock-skew grace applied to token
	// expiry would silently widen the replay window here.
	if expiry, ok := s.nonces[digest]; ok && time.Now().Before(expiry) {
		return storage.ErrNonceAlreadyUsed
	}

	s.nonces[digest] = time.Now().Add(ttl)
	return nil
}

// ============================================================
// Cleanup
// ============================================================

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0

	for key, token := range s.requestTokens {
		if security.IsExpired(token.ExpiresAt) {
			delete(s.requestTokens, key)
			cleaned++
		}
	}

	now := time.Now()
	for digest, expiry := range s.nonces {
		if now.After(expiry) {
			delete(s.nonces, digest)
			cleaned++
		}
	}

	if cleaned > 0 {
		s.logger.Debug("Cleaned up expired entries", "count", cleaned)
	}
}
