package oauth1

import (
	"context"
	"fmt"

	"github.com/signkit/oauth1-provider/storage"
)

// BeginAuthorization loads what the authorization page needs to render a
// consent prompt: the pending request token and the consumer that
// requested it.
func (p *Provider) BeginAuthorization(ctx context.Context, tokenKey string) (*Authorization, error) {
	ctx, span := p.startSpan(ctx, "begin_authorization")
	defer span.End()

	token, err := p.LookupToken(ctx, storage.TokenKindRequest, tokenKey)
	if err != nil {
		return nil, err
	}

	consumer, err := p.Consumer(ctx, token.ConsumerKey)
	if err != nil {
		return nil, err
	}

	return &Authorization{
		Consumer: consumer,
		Token:    token.Request,
	}, nil
}

// ResolveAuthorization records the resource owner's consent decision for
// a pending request token. On grant the token becomes authorized, a
// verifier is generated, and the effective callback is resolved; on
// denial the token is discarded. callback, when non-empty, is the target
// declared at authorization time and only takes effect if the token was
// issued without one.
func (p *Provider) ResolveAuthorization(ctx context.Context, tokenKey string, decision Decision, userID, callback string) (*AuthorizationResult, error) {
	ctx, span := p.startSpan(ctx, "resolve_authorization")
	defer span.End()

	switch decision {
	case DecisionGrant:
		return p.grantAuthorization(ctx, tokenKey, userID, callback)
	case DecisionDeny:
		return p.denyAuthorization(ctx, tokenKey, callback)
	default:
		return nil, ErrInvalidRequest(fmt.Sprintf("invalid authorization decision %q", decision))
	}
}

func (p *Provider) grantAuthorization(ctx context.Context, tokenKey, userID, callback string) (*AuthorizationResult, error) {
	token, err := p.AuthorizeRequestToken(ctx, tokenKey, userID)
	if err != nil {
		return nil, err
	}

	// The callback declared at issuance wins; one supplied now fills the
	// gap only when the token was issued without one.
	effective := token.Callback
	if callback != "" {
		updated, err := p.tokens.SetRequestTokenCallback(ctx, tokenKey, callback)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrUnknownToken("request token not found")
			}
			return nil, p.storageFailure("set request token callback", err)
		}
		effective = updated.Callback
	}

	return &AuthorizationResult{
		Token:    token.Key,
		Verifier: token.Verifier,
		Callback: effective,
	}, nil
}

func (p *Provider) denyAuthorization(ctx context.Context, tokenKey, callback string) (*AuthorizationResult, error) {
	token, err := p.tokens.GetRequestToken(ctx, tokenKey)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUnknownToken("request token not found")
		}
		return nil, p.storageFailure("get request token", err)
	}

	effective := token.Callback
	if effective == "" {
		effective = callback
	}

	if err := p.DenyRequestToken(ctx, tokenKey); err != nil {
		return nil, err
	}

	return &AuthorizationResult{
		Denied:   true,
		Callback: effective,
	}, nil
}
