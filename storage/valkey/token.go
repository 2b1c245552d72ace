package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/signkit/oauth1-provider/internal/util"
	"github.com/signkit/oauth1-provider/storage"
)

// ============================================================
// TokenStore Implementation
// ============================================================

// requestTokenJSON is the stored representation of a request token.
// Timestamps are unix seconds so the Lua scripts can compare them with
// plain arithmetic.
type requestTokenJSON struct {
	Key         string `json:"key"`
	Secret      string `json:"secret"`
	ConsumerKey string `json:"consumer_key"`
	Authorized  bool   `json:"authorized"`
	UserID      string `json:"user_id,omitempty"`
	Verifier    string `json:"verifier,omitempty"`
	Callback    string `json:"callback,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	ExpiresAt   int64  `json:"expires_at"`
}

func toRequestTokenJSON(t *storage.RequestToken) *requestTokenJSON {
	j := &requestTokenJSON{
		Key:         t.Key,
		Secret:      t.Secret,
		ConsumerKey: t.ConsumerKey,
		Authorized:  t.Authorized,
		UserID:      t.UserID,
		Verifier:    t.Verifier,
		Callback:    t.Callback,
		CreatedAt:   t.CreatedAt.Unix(),
	}
	if !t.ExpiresAt.IsZero() {
		j.ExpiresAt = t.ExpiresAt.Unix()
	}
	return j
}

func fromRequestTokenJSON(j *requestTokenJSON) *storage.RequestToken {
	t := &storage.RequestToken{
		Key:         j.Key,
		Secret:      j.Secret,
		ConsumerKey: j.ConsumerKey,
		Authorized:  j.Authorized,
		UserID:      j.UserID,
		Verifier:    j.Verifier,
		Callback:    j.Callback,
		CreatedAt:   time.Unix(j.CreatedAt, 0),
	}
	if j.ExpiresAt > 0 {
		t.ExpiresAt = time.Unix(j.ExpiresAt, 0)
	}
	return t
}

// accessTokenJSON is the stored representation of an access token.
type accessTokenJSON struct {
	Key         string `json:"key"`
	Secret      string `json:"secret"`
	ConsumerKey string `json:"consumer_key"`
	UserID      string `json:"user_id"`
	CreatedAt   int64  `json:"created_at"`
}

func toAccessTokenJSON(t *storage.AccessToken) *accessTokenJSON {
	return &accessTokenJSON{
		Key:         t.Key,
		Secret:      t.Secret,
		ConsumerKey: t.ConsumerKey,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt.Unix(),
	}
}

func fromAccessTokenJSON(j *accessTokenJSON) *storage.AccessToken {
	return &storage.AccessToken{
		Key:         j.Key,
		Secret:      j.Secret,
		ConsumerKey: j.ConsumerKey,
		UserID:      j.UserID,
		CreatedAt:   time.Unix(j.CreatedAt, 0),
	}
}

// SaveRequestToken saves a request token. The record carries a Valkey TTL
// matching its expiry, so expired tokens disappear without sweeping.
func (s *Store) SaveRequestToken(ctx context.Context, token *storage.RequestToken) error {
	if token == nil || token.Key == "" {
		return fmt.Errorf("invalid request token")
	}

	data, err := json.Marshal(toRequestTokenJSON(token))
	if err != nil {
		return fmt.Errorf("failed to marshal request token: %w", err)
	}

	key := s.requestTokenKey(token.Key)

	var execErr error
	if !token.ExpiresAt.IsZero() {
		ttl := calculateTTL(token.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("request token already expired")
		}
		execErr = s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Ex(ttl).Build()).Error()
	} else {
		execErr = s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Build()).Error()
	}

	if execErr != nil {
		return fmt.Errorf("failed to save request token: %w", execErr)
	}

	s.logger.Debug("Saved request token",
		"token_key", util.SafeTruncate(token.Key, tokenKeyLogLength))
	return nil
}

// GetRequestToken retrieves a request token by key
func (s *Store) GetRequestToken(ctx context.Context, key string) (*storage.RequestToken, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.requestTokenKey(key)).Build()).ToString()
	if err != nil {
		if isNilError(err) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get request token: %w", err)
	}

	var j requestTokenJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request token: %w", err)
	}

	token := fromRequestTokenJSON(&j)

	// The TTL normally removes expired tokens; this covers the window
	// before Valkey reaps the key.
	if !token.ExpiresAt.IsZero() && time.Now().After(token.ExpiresAt) {
		return nil, storage.ErrTokenExpired
	}

	return token, nil
}

// DeleteRequestToken removes a request token
func (s *Store) DeleteRequestToken(ctx context.Context, key string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.requestTokenKey(key)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete request token: %w", err)
	}

	s.logger.Debug("Deleted request token",
		"token_key", util.SafeTruncate(key, tokenKeyLogLength))
	return nil
}

// AtomicAuthorizeRequestToken marks a request token authorized, records
// the resource owner and verifier, and returns the updated token. The
// transition happens at most once; a second attempt fails with
// ErrTokenAlreadyAuthorized.
//
// Atomic via Lua script: only ONE concurrent authorization can succeed.
func (s *Store) AtomicAuthorizeRequestToken(ctx context.Context, key, userID, verifier string) (*storage.RequestToken, error) {
	result, err := s.client.Do(ctx,
		s.client.B().Eval().Script(luaAtomicAuthorizeRequestToken).
			Numkeys(1).
			Key(s.requestTokenKey(key)).
			Arg(fmt.Sprintf("%d", time.Now().Unix())).
			Arg(userID).
			Arg(verifier).
			Build(),
	).ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to execute atomic authorize: %w", err)
	}

	switch result {
	case "NOT_FOUND":
		return nil, storage.ErrTokenNotFound
	case "EXPIRED":
		return nil, fmt.Errorf("%w: request token expired", storage.ErrTokenExpired)
	case "ALREADY_AUTHORIZED":
		return nil, storage.ErrTokenAlreadyAuthorized
	}

	var j requestTokenJSON
	if err := json.Unmarshal([]byte(result), &j); err != nil {
		return nil, fmt.Errorf("failed to parse atomic authorize result: %w", err)
	}

	s.logger.Debug("Authorized request token",
		"token_key", util.SafeTruncate(key, tokenKeyLogLength))
	return fromRequestTokenJSON(&j), nil
}

// SetRequestTokenCallback records the callback on a request token if the
// token was issued without one. First write wins; a callback declared at
// issuance is never overwritten. Returns the current token either way.
func (s *Store) SetRequestTokenCallback(ctx context.Context, key, callback string) (*storage.RequestToken, error) {
	result, err := s.client.Do(ctx,
		s.client.B().Eval().Script(luaSetRequestTokenCallback).
			Numkeys(1).
			Key(s.requestTokenKey(key)).
			Arg(fmt.Sprintf("%d", time.Now().Unix())).
			Arg(callback).
			Build(),
	).ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to execute callback update: %w", err)
	}

	switch result {
	case "NOT_FOUND":
		return nil, storage.ErrTokenNotFound
	case "EXPIRED":
		return nil, fmt.Errorf("%w: request token expired", storage.ErrTokenExpired)
	}

	var j requestTokenJSON
	if err := json.Unmarshal([]byte(result), &j); err != nil {
		return nil, fmt.Errorf("failed to parse callback update result: %w", err)
	}

	return fromRequestTokenJSON(&j), nil
}

// AtomicConsumeRequestToken retrieves and deletes a request token in one
// step. This is the redemption half of the exchange: of N concurrent
// attempts exactly one receives the token, the rest get ErrTokenNotFound.
//
// Atomic via Lua script: only ONE concurrent exchange can succeed.
func (s *Store) AtomicConsumeRequestToken(ctx context.Context, key string) (*storage.RequestToken, error) {
	result, err := s.client.Do(ctx,
		s.client.B().Eval().Script(luaAtomicConsumeRequestToken).
			Numkeys(1).
			Key(s.requestTokenKey(key)).
			Arg(fmt.Sprintf("%d", time.Now().Unix())).
			Build(),
	).ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to execute atomic consume: %w", err)
	}

	switch result {
	case "NOT_FOUND":
		return nil, fmt.Errorf("%w: request token not found or already consumed", storage.ErrTokenNotFound)
	case "EXPIRED":
		return nil, fmt.Errorf("%w: request token expired", storage.ErrTokenExpired)
	}

	var j requestTokenJSON
	if err := json.Unmarshal([]byte(result), &j); err != nil {
		return nil, fmt.Errorf("failed to parse atomic consume result: %w", err)
	}

	s.logger.Debug("Consumed request token",
		"token_key", util.SafeTruncate(key, tokenKeyLogLength))
	return fromRequestTokenJSON(&j), nil
}

// SaveAccessToken saves an access token. Access tokens do not expire, so
// the record carries no TTL.
func (s *Store) SaveAccessToken(ctx context.Context, token *storage.AccessToken) error {
	if token == nil || token.Key == "" {
		return fmt.Errorf("invalid access token")
	}

	data, err := json.Marshal(toAccessTokenJSON(token))
	if err != nil {
		return fmt.Errorf("failed to marshal access token: %w", err)
	}

	key := s.accessTokenKey(token.Key)

	if err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}

	s.logger.Debug("Saved access token",
		"token_key", util.SafeTruncate(token.Key, tokenKeyLogLength))
	return nil
}

// GetAccessToken retrieves an access token by key
func (s *Store) GetAccessToken(ctx context.Context, key string) (*storage.AccessToken, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.accessTokenKey(key)).Build()).ToString()
	if err != nil {
		if isNilError(err) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	var j accessTokenJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal access token: %w", err)
	}

	return fromAccessTokenJSON(&j), nil
}

// DeleteAccessToken removes an access token
func (s *Store) DeleteAccessToken(ctx context.Context, key string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.accessTokenKey(key)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}

	s.logger.Debug("Deleted access token",
		"token_key", util.SafeTruncate(key, tokenKeyLogLength))
	return nil
}
