package security

import "time"

const (
	// DefaultClockSkewGracePeriod is the default grace period for token
	// expiration checks. This prevents false expiration errors due to time
	// synchronization issues between the hosts sharing a storage backend.
	//
	// Trade-off: a token can be used up to 5 seconds beyond its true
	// expiration, which is acceptable against a 24-hour retention period.
	DefaultClockSkewGracePeriod = 5 * time.Second
)

// IsExpired checks if a deadline has passed with the default clock skew
// grace period. A zero deadline never expires.
func IsExpired(expiresAt time.Time) bool {
	return IsExpiredWithGracePeriod(expiresAt, DefaultClockSkewGracePeriod)
}

// IsExpiredWithGracePeriod checks if a deadline has passed with a custom
// clock skew grace period.
func IsExpiredWithGracePeriod(expiresAt time.Time, gracePeriod time.Duration) bool {
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().After(expiresAt.Add(gracePeriod))
}
