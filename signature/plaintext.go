package signature

import "crypto/subtle"

// Plaintext verifies PLAINTEXT signatures: the signature is the signing
// key itself, transmitted verbatim. It offers no cryptographic protection
// of its own, so it may only be accepted over an encrypted transport; the
// provider enforces that via the TransportSensitive interface.
type Plaintext struct{}

// Name returns "PLAINTEXT".
func (Plaintext) Name() string { return "PLAINTEXT" }

// Verify compares the provided signature to the signing key in constant
// time. The base string is ignored by this method.
func (Plaintext) Verify(_, consumerSecret, tokenSecret, provided string) error {
	expected := SigningKey(consumerSecret, tokenSecret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		return ErrMismatch
	}
	return nil
}

// RequiresSecureTransport reports that PLAINTEXT must not be accepted
// over an unencrypted transport.
func (Plaintext) RequiresSecureTransport() bool { return true }
