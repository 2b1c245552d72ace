package oauth1

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signkit/oauth1-provider/internal/util"
	"github.com/signkit/oauth1-provider/security"
	"github.com/signkit/oauth1-provider/storage"
)

// tokenKeyLogLength is the number of characters of a token key included
// in log records.
const tokenKeyLogLength = 8

// IssueRequestToken generates a pending request token for the consumer.
// callback is the client-declared redirect target, the out-of-band
// sentinel, or empty when the client declared none (it may then be
// supplied once at authorization time).
func (p *Provider) IssueRequestToken(ctx context.Context, consumerKey, callback string) (*storage.RequestToken, error) {
	ctx, span := p.startSpan(ctx, "issue_request_token")
	defer span.End()

	if _, err := p.Consumer(ctx, consumerKey); err != nil {
		return nil, err
	}

	now := time.Now()
	token := &storage.RequestToken{
		Key:         security.GenerateTokenKey(security.RequestTokenKeyPrefix),
		Secret:      security.GenerateSecret(),
		ConsumerKey: consumerKey,
		Callback:    callback,
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.config.RequestTokenTTL),
	}

	if err := p.tokens.SaveRequestToken(ctx, token); err != nil {
		return nil, p.storageFailure("save request token", err)
	}

	p.auditor.LogTokenIssued(consumerKey, token.Key, callback != "")
	if m := p.metrics(); m != nil {
		m.RecordTokenIssued(ctx)
	}
	p.logger.Debug("Issued request token",
		"consumer_key", consumerKey,
		"token_key", util.SafeTruncate(token.Key, tokenKeyLogLength))

	return token, nil
}

// AuthorizeRequestToken transitions a pending request token to
// authorized on behalf of the resource owner, generating the one-time
// verifier the consumer must present at exchange. A token can make this
// transition exactly once; re-authorization fails with invalid_state.
func (p *Provider) AuthorizeRequestToken(ctx context.Context, tokenKey, userID string) (*storage.RequestToken, error) {
	ctx, span := p.startSpan(ctx, "authorize_request_token")
	defer span.End()

	verifier := security.GenerateVerifier(p.config.VerifierLength)

	token, err := p.tokens.AtomicAuthorizeRequestToken(ctx, tokenKey, userID, verifier)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTokenAlreadyAuthorized):
			return nil, ErrInvalidState("request token is already authorized")
		case isNotFound(err):
			return nil, ErrUnknownToken("request token not found")
		default:
			return nil, p.storageFailure("authorize request token", err)
		}
	}

	p.auditor.LogTokenAuthorized(token.ConsumerKey, token.Key, userID)
	if m := p.metrics(); m != nil {
		m.RecordTokenAuthorized(ctx)
	}
	p.logger.Debug("Authorized request token",
		"token_key", util.SafeTruncate(tokenKey, tokenKeyLogLength))

	return token, nil
}

// DenyRequestToken discards a request token after the resource owner
// refused authorization. Denial is terminal: no denied state is kept,
// the token simply ceases to exist.
func (p *Provider) DenyRequestToken(ctx context.Context, tokenKey string) error {
	ctx, span := p.startSpan(ctx, "deny_request_token")
	defer span.End()

	token, err := p.tokens.GetRequestToken(ctx, tokenKey)
	if err != nil {
		if isNotFound(err) {
			return ErrUnknownToken("request token not found")
		}
		return p.storageFailure("get request token", err)
	}

	if err := p.tokens.DeleteRequestToken(ctx, tokenKey); err != nil {
		return p.storageFailure("delete request token", err)
	}

	p.auditor.LogTokenDenied(token.ConsumerKey, tokenKey)
	if m := p.metrics(); m != nil {
		m.RecordTokenDenied(ctx)
	}
	p.logger.Debug("Denied request token",
		"token_key", util.SafeTruncate(tokenKey, tokenKeyLogLength))

	return nil
}

// ExchangeRequestToken redeems an authorized request token for an access
// token. The presented verifier must match the one generated at
// authorization, and redemption is one-shot: the request token is
// consumed atomically, so concurrent exchange attempts yield exactly one
// access token.
func (p *Provider) ExchangeRequestToken(ctx context.Context, consumerKey, tokenKey, verifier string) (*storage.AccessToken, error) {
	ctx, span := p.startSpan(ctx, "exchange_request_token")
	defer span.End()

	consumer, err := p.Consumer(ctx, consumerKey)
	if err != nil {
		return nil, err
	}

	token, err := p.tokens.GetRequestToken(ctx, tokenKey)
	if err != nil {
		if isNotFound(err) {
			// Denied, expired, or already redeemed - all read the same.
			return nil, ErrUnauthorizedToken("request token not found")
		}
		return nil, p.storageFailure("get request token", err)
	}

	if token.ConsumerKey != consumer.Key {
		p.auditor.LogAuthFailure(consumerKey, tokenKey, "consumer_token_mismatch")
		return nil, ErrUnknownToken("request token belongs to a different consumer")
	}

	if !token.Authorized {
		p.auditor.LogAuthFailure(consumerKey, tokenKey, "token_not_authorized")
		return nil, ErrUnauthorizedToken("request token was never authorized")
	}

	if !security.ConstantTimeEquals(token.Verifier, verifier) {
		p.auditor.LogAuthFailure(consumerKey, tokenKey, "verifier_mismatch")
		return nil, ErrVerifierMismatch("verifier does not match")
	}

	// One-shot redemption: whoever consumes the token wins; concurrent
	// losers observe it as gone.
	consumed, err := p.tokens.AtomicConsumeRequestToken(ctx, tokenKey)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUnauthorizedToken("request token already redeemed")
		}
		return nil, p.storageFailure("consume request token", err)
	}

	access := &storage.AccessToken{
		Key:         security.GenerateTokenKey(security.AccessTokenKeyPrefix),
		Secret:      security.GenerateSecret(),
		ConsumerKey: consumed.ConsumerKey,
		UserID:      consumed.UserID,
		CreatedAt:   time.Now(),
	}

	if err := p.tokens.SaveAccessToken(ctx, access); err != nil {
		return nil, p.storageFailure("save access token", err)
	}

	p.auditor.LogTokenExchanged(consumerKey, tokenKey, consumed.UserID)
	if m := p.metrics(); m != nil {
		m.RecordTokenExchanged(ctx)
	}
	p.logger.Info("Exchanged request token for access token",
		"consumer_key", consumerKey,
		"request_token_key", util.SafeTruncate(tokenKey, tokenKeyLogLength),
		"access_token_key", util.SafeTruncate(access.Key, tokenKeyLogLength))

	return access, nil
}

// RevokeAccessToken explicitly deletes an access token. Verification of
// requests signed with it fails from the very next call.
func (p *Provider) RevokeAccessToken(ctx context.Context, tokenKey string) error {
	ctx, span := p.startSpan(ctx, "revoke_access_token")
	defer span.End()

	token, err := p.tokens.GetAccessToken(ctx, tokenKey)
	if err != nil {
		if isNotFound(err) {
			return ErrUnknownToken("access token not found")
		}
		return p.storageFailure("get access token", err)
	}

	if err := p.tokens.DeleteAccessToken(ctx, tokenKey); err != nil {
		return p.storageFailure("delete access token", err)
	}

	p.auditor.LogTokenRevoked(token.ConsumerKey, tokenKey)
	if m := p.metrics(); m != nil {
		m.RecordTokenRevoked(ctx)
	}
	return nil
}

// LookupToken resolves a token of the given kind. A token whose consumer
// has been deleted is treated as not found: consumer deletion cascades to
// its tokens at lookup time rather than by sweeping.
func (p *Provider) LookupToken(ctx context.Context, kind storage.TokenKind, key string) (*Token, error) {
	var resolved *Token

	switch kind {
	case storage.TokenKindRequest:
		token, err := p.tokens.GetRequestToken(ctx, key)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrUnknownToken("request token not found")
			}
			return nil, p.storageFailure("get request token", err)
		}
		resolved = &Token{
			Kind:        storage.TokenKindRequest,
			Key:         token.Key,
			Secret:      token.Secret,
			ConsumerKey: token.ConsumerKey,
			Request:     token,
		}

	case storage.TokenKindAccess:
		token, err := p.tokens.GetAccessToken(ctx, key)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrUnknownToken("access token not found")
			}
			return nil, p.storageFailure("get access token", err)
		}
		resolved = &Token{
			Kind:        storage.TokenKindAccess,
			Key:         token.Key,
			Secret:      token.Secret,
			ConsumerKey: token.ConsumerKey,
			Access:      token,
		}

	default:
		return nil, ErrInvalidRequest(fmt.Sprintf("invalid token kind %q", kind))
	}

	// Cascade invalidation: a token without a live consumer is no token.
	if _, err := p.consumers.GetConsumer(ctx, resolved.ConsumerKey); err != nil {
		if errors.Is(err, storage.ErrConsumerNotFound) {
			return nil, ErrUnknownToken("token consumer no longer exists")
		}
		return nil, p.storageFailure("get consumer", err)
	}

	return resolved, nil
}
