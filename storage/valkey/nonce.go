package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/signkit/oauth1-provider/storage"
)

// ============================================================
// NonceStore Implementation
// ============================================================

// CheckAndRecordNonce records a nonce digest if it has not been seen
// within the retention window. SET NX makes the check-and-record a single
// atomic operation: of N concurrent requests carrying the same digest
// exactly one succeeds, the rest get ErrNonceAlreadyUsed.
func (s *Store) CheckAndRecordNonce(ctx context.Context, digest string, ttl time.Duration) error {
	if digest == "" {
		return fmt.Errorf("nonce digest cannot be empty")
	}
	if ttl <= 0 {
		return fmt.Errorf("nonce ttl must be positive")
	}

	err := s.client.Do(ctx,
		s.client.B().Set().Key(s.nonceKey(digest)).Value("1").Nx().Ex(ttl).Build(),
	).Error()
	if err != nil {
		if isNilError(err) {
			// SET NX returns nil when the key already exists
			return storage.ErrNonceAlreadyUsed
		}
		return fmt.Errorf("failed to record nonce: %w", err)
	}

	return nil
}
