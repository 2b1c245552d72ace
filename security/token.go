package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	// ConsumerKeyLength is the number of characters in a generated consumer key
	ConsumerKeyLength = 12

	// TokenKeyLength is the number of characters in a generated token key,
	// excluding the kind prefix. The OAuth 1.0a parameter set tolerates up
	// to 43 characters; 24 leaves headroom for the prefix.
	TokenKeyLength = 24

	// SecretLength is the number of characters in a generated secret
	SecretLength = 48

	// MinVerifierLength is the smallest verifier length the provider will
	// generate. Verifiers are one-time values, but they travel through
	// query strings and user-visible pages, so they stay short.
	MinVerifierLength = 8

	// RequestTokenKeyPrefix marks request token keys
	RequestTokenKeyPrefix = "rt"

	// AccessTokenKeyPrefix marks access token keys
	AccessTokenKeyPrefix = "at"
)

// tokenAlphabet is the symbol set for generated credentials: base62, safe
// to embed in URLs and form-encoded bodies without escaping.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString returns n characters drawn uniformly from the base62
// alphabet using crypto/rand.
//
// The function panics if the system's random number generator fails,
// which indicates a critical system-level security failure.
func RandomString(n int) string {
	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// CRITICAL: System RNG failure - cannot generate secure credentials
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b)
}

// GenerateConsumerKey returns a fresh consumer key.
func GenerateConsumerKey() string {
	return RandomString(ConsumerKeyLength)
}

// GenerateTokenKey returns a fresh token key carrying the given kind
// prefix, e.g. "rt_x7K...".
func GenerateTokenKey(prefix string) string {
	return prefix + "_" + RandomString(TokenKeyLength)
}

// GenerateSecret returns a fresh shared secret.
func GenerateSecret() string {
	return RandomString(SecretLength)
}

// GenerateVerifier returns a fresh one-time verifier of at least
// MinVerifierLength characters.
func GenerateVerifier(n int) string {
	if n < MinVerifierLength {
		n = MinVerifierLength
	}
	return RandomString(n)
}

// ConstantTimeEquals compares two strings in constant time to avoid
// leaking match length through timing. Used for verifier and signature
// comparison.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
