package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
)

// HMACSHA1 verifies HMAC-SHA1 signatures, the mandatory method of
// RFC 5849. The provided signature is the base64 digest as transmitted by
// the client, already URL-decoded by the HTTP layer.
type HMACSHA1 struct{}

// Name returns "HMAC-SHA1".
func (HMACSHA1) Name() string { return "HMAC-SHA1" }

// Verify recomputes the digest over the base string with the signing key
// derived from both secrets and compares it to the provided signature in
// constant time.
func (HMACSHA1) Verify(baseString, consumerSecret, tokenSecret, provided string) error {
	decoded, err := base64.StdEncoding.DecodeString(provided)
	if err != nil {
		return fmt.Errorf("signature is not valid base64: %w", err)
	}

	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	mac.Write([]byte(baseString))

	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return ErrMismatch
	}
	return nil
}
