// Package signature implements the pluggable signature verification
// methods consumed by the provider core. The core itself never signs or
// verifies; it hands the signature base string and the relevant secrets
// to a Method selected by the oauth_signature_method parameter.
package signature

import (
	"errors"

	"github.com/signkit/oauth1-provider/internal/util"
)

// ErrMismatch indicates the provided signature does not match the one
// computed from the request data and secrets.
var ErrMismatch = errors.New("signature mismatch")

// Method verifies request signatures for one oauth_signature_method value.
type Method interface {
	// Name returns the oauth_signature_method value this method handles,
	// e.g. "HMAC-SHA1".
	Name() string

	// Verify checks the provided signature against the signature base
	// string. tokenSecret is empty for request-token-phase requests,
	// which carry no token. Returns ErrMismatch when the signature does
	// not verify; any other error indicates a malformed input.
	Verify(baseString, consumerSecret, tokenSecret, provided string) error
}

// TransportSensitive is implemented by methods that must only be accepted
// over an encrypted transport, such as PLAINTEXT.
type TransportSensitive interface {
	RequiresSecureTransport() bool
}

// SigningKey builds the shared signing key from the consumer secret and
// the (possibly empty) token secret, each percent-encoded and joined
// with "&" per RFC 5849 section 3.4.2.
func SigningKey(consumerSecret, tokenSecret string) string {
	return util.PercentEncode(consumerSecret) + "&" + util.PercentEncode(tokenSecret)
}
