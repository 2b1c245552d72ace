package security

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// noTokenPlaceholder is substituted for the token key when a request
// carries no token, so request-token-phase requests are still covered by
// the replay guard.
const noTokenPlaceholder = "notoken"

// NonceDigest derives the replay-guard key for a signed request. The
// digest is deterministic over (nonce, consumer key, token key, timestamp)
// so an identical replayed request always maps to the same record.
//
// SHA-1 is used as a uniform key derivation, not for collision resistance:
// an attacker who could force a digest collision would only deny service
// to their own future request.
func NonceDigest(nonce, consumerKey, tokenKey string, timestamp int64) string {
	if tokenKey == "" {
		tokenKey = noTokenPlaceholder
	}
	h := sha1.New()
	h.Write([]byte(nonce))
	h.Write([]byte(consumerKey))
	h.Write([]byte(tokenKey))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
