package oauth1

import (
	"context"
	"fmt"

	"github.com/signkit/oauth1-provider/signature"
	"github.com/signkit/oauth1-provider/storage"
)

// Verify authenticates a signed protocol request. Protocol parameter
// extraction and base-string construction happen at the transport layer;
// Verify covers everything after that: consumer and token resolution,
// replay detection, and signature verification. The replay check runs
// before the signature check, so a replayed request is rejected even
// when its signature would not have verified.
func (p *Provider) Verify(ctx context.Context, req *SignedRequest) (*Identity, error) {
	ctx, span := p.startSpan(ctx, "verify")
	defer span.End()

	if err := validateSignedRequest(req); err != nil {
		return nil, err
	}

	if p.failureLimiter != nil && !p.failureLimiter.Allow(req.ConsumerKey) {
		p.auditor.LogRateLimitExceeded(req.ConsumerKey)
		if m := p.metrics(); m != nil {
			m.RecordRateLimitExceeded(ctx)
		}
		return nil, ErrRateLimitExceeded("verification attempt rate exceeded")
	}

	identity, err := p.verify(ctx, req)
	if err != nil {
		if m := p.metrics(); m != nil {
			m.RecordVerification(ctx, CodeOf(err))
		}
		return nil, err
	}

	if m := p.metrics(); m != nil {
		m.RecordVerification(ctx, "ok")
	}
	return identity, nil
}

func (p *Provider) verify(ctx context.Context, req *SignedRequest) (*Identity, error) {
	consumer, err := p.Consumer(ctx, req.ConsumerKey)
	if err != nil {
		p.auditor.LogAuthFailure(req.ConsumerKey, req.TokenKey, "unknown_consumer")
		return nil, err
	}

	var token *Token
	tokenSecret := ""
	if req.TokenKey != "" {
		token, err = p.LookupToken(ctx, req.TokenKind, req.TokenKey)
		if err != nil {
			p.auditor.LogAuthFailure(req.ConsumerKey, req.TokenKey, "unknown_token")
			return nil, err
		}
		if token.ConsumerKey != consumer.Key {
			p.auditor.LogAuthFailure(req.ConsumerKey, req.TokenKey, "consumer_token_mismatch")
			return nil, ErrUnknownToken("token belongs to a different consumer")
		}
		tokenSecret = token.Secret
	}

	if err := p.guard.CheckAndRecord(ctx, req.ConsumerKey, req.TokenKey, req.Nonce, req.Timestamp); err != nil {
		if CodeOf(err) == ErrorCodeReplayedRequest {
			p.auditor.LogReplayDetected(req.ConsumerKey, req.TokenKey, req.Timestamp)
			if m := p.metrics(); m != nil {
				m.RecordReplayDetected(ctx)
			}
		}
		return nil, err
	}

	method, ok := p.methods[req.SignatureMethod]
	if !ok {
		p.auditor.LogAuthFailure(req.ConsumerKey, req.TokenKey, "unsupported_signature_method")
		return nil, ErrSignatureMismatch(fmt.Sprintf("unsupported signature method %q", req.SignatureMethod))
	}

	if ts, ok := method.(signature.TransportSensitive); ok && ts.RequiresSecureTransport() {
		if !req.SecureTransport && !p.config.Security.AllowPlaintextWithoutTLS {
			return nil, ErrConfigurationError(fmt.Sprintf("signature method %q requires a secure transport", method.Name()))
		}
	}

	if err := method.Verify(req.BaseString, consumer.Secret, tokenSecret, req.Signature); err != nil {
		p.auditor.LogAuthFailure(req.ConsumerKey, req.TokenKey, "signature_mismatch")
		return nil, ErrSignatureMismatch("signature does not match")
	}

	identity := &Identity{
		Consumer: consumer,
		Token:    token,
	}
	if token != nil && token.Kind == storage.TokenKindAccess {
		identity.UserID = token.Access.UserID
	}
	return identity, nil
}

func validateSignedRequest(req *SignedRequest) error {
	switch {
	case req == nil:
		return ErrInvalidRequest("request is nil")
	case req.ConsumerKey == "":
		return ErrInvalidRequest("missing consumer key")
	case req.Nonce == "":
		return ErrInvalidRequest("missing nonce")
	case req.Timestamp <= 0:
		return ErrInvalidRequest("missing or invalid timestamp")
	case req.SignatureMethod == "":
		return ErrInvalidRequest("missing signature method")
	case req.Signature == "":
		return ErrInvalidRequest("missing signature")
	}
	return nil
}
