package oauth1

import (
	"fmt"
	"net/url"

	"github.com/signkit/oauth1-provider/internal/util"
	"github.com/signkit/oauth1-provider/storage"
)

// OutOfBandCallback is the sentinel a client declares when it has no
// redirect URL and expects the verifier displayed directly to the user.
const OutOfBandCallback = "oob"

// SignedRequest carries the authentication-relevant parts of an inbound
// signed request. The HTTP layer extracts the OAuth protocol parameters
// and computes the signature base string (method, base URL, normalized
// parameters per RFC 5849 section 3.4.1); the provider core never
// reconstructs it.
type SignedRequest struct {
	ConsumerKey string

	// TokenKey and TokenKind identify the token the request is signed
	// with, if any. Request-token-phase requests leave both empty.
	TokenKey  string
	TokenKind storage.TokenKind

	Nonce     string
	Timestamp int64

	// SignatureMethod is the oauth_signature_method parameter value.
	SignatureMethod string

	// Signature is the oauth_signature parameter value, URL-decoded.
	Signature string

	// BaseString is the exact data the signature was computed over.
	BaseString string

	// SecureTransport reports whether the request arrived over an
	// encrypted transport. Gates transport-sensitive signature methods.
	SecureTransport bool
}

// Identity is the authenticated result of verifying a signed request.
type Identity struct {
	Consumer *storage.Consumer
	Token    *Token

	// UserID is the resource owner bound to an access token. Empty when
	// the request carried no token or a request token not yet authorized.
	UserID string
}

// Token is the resolved form of either token kind: common fields up
// front, the kind-specific record behind exactly one of the two pointers.
type Token struct {
	Kind        storage.TokenKind
	Key         string
	Secret      string
	ConsumerKey string

	Request *storage.RequestToken
	Access  *storage.AccessToken
}

// TokenResponse is the URL-encoded body returned by the request-token
// and access-token endpoints.
type TokenResponse struct {
	Token       string
	TokenSecret string

	// CallbackConfirmed is set on request-token responses when the client
	// supplied a callback.
	CallbackConfirmed bool
}

// Encode renders the response body, percent-encoded per RFC 3986.
func (r *TokenResponse) Encode() string {
	body := fmt.Sprintf("oauth_token=%s&oauth_token_secret=%s",
		util.PercentEncode(r.Token), util.PercentEncode(r.TokenSecret))
	if r.CallbackConfirmed {
		body += "&oauth_callback_confirmed=true"
	}
	return body
}

// Decision is the resource owner's answer on the authorization page.
type Decision string

const (
	// DecisionGrant authorizes the request token for the deciding user.
	DecisionGrant Decision = "grant"

	// DecisionDeny refuses authorization and discards the token.
	DecisionDeny Decision = "deny"
)

// AuthorizationResult carries the outcome of resolving an authorization.
// For grants the HTTP layer redirects to the callback, or displays the
// verifier when the callback is out-of-band. For denials no verifier
// exists.
type AuthorizationResult struct {
	Denied bool

	Token    string
	Verifier string

	// Callback is the effective callback target, or "oob"/empty when the
	// client declared none.
	Callback string
}

// OutOfBand reports whether the result must be displayed to the user
// instead of redirected.
func (r *AuthorizationResult) OutOfBand() bool {
	return r.Callback == "" || r.Callback == OutOfBandCallback
}

// Encode renders the result as a URL-encoded body, for out-of-band
// display or denial responses.
func (r *AuthorizationResult) Encode() string {
	if r.Denied {
		return "denied=true"
	}
	return fmt.Sprintf("oauth_token=%s&oauth_verifier=%s",
		util.PercentEncode(r.Token), util.PercentEncode(r.Verifier))
}

// RedirectURL builds the client callback URL with the result parameters
// appended. Returns an error for out-of-band results or unparsable
// callbacks; callers should fall back to Encode.
func (r *AuthorizationResult) RedirectURL() (string, error) {
	if r.OutOfBand() {
		return "", fmt.Errorf("callback is out-of-band")
	}

	u, err := url.Parse(r.Callback)
	if err != nil {
		return "", fmt.Errorf("invalid callback url: %w", err)
	}

	q := u.Query()
	if r.Denied {
		q.Set("denied", "true")
	} else {
		q.Set("oauth_token", r.Token)
		q.Set("oauth_verifier", r.Verifier)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Authorization is the data the consent page needs: the token under
// decision and the consumer requesting access.
type Authorization struct {
	Consumer *storage.Consumer
	Token    *storage.RequestToken
}
