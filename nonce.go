package oauth1

import (
	"context"
	"errors"
	"time"

	"github.com/signkit/oauth1-provider/security"
	"github.com/signkit/oauth1-provider/storage"
)

// NonceGuard detects replayed requests. Each signed request is reduced to
// a digest over (nonce, consumer key, token key, timestamp); a digest
// seen within the retention window means a replay.
//
// Timestamps outside the retention window - past or future - are rejected
// as replayed even on first sight: once a timestamp falls outside the
// window the guard can no longer distinguish it from a replay whose
// record has already expired, so it fails closed.
type NonceGuard struct {
	store     storage.NonceStore
	retention time.Duration
	now       func() time.Time
}

// NewNonceGuard creates a nonce guard over the given store. A retention
// of zero or less falls back to DefaultNonceRetention.
func NewNonceGuard(store storage.NonceStore, retention time.Duration) *NonceGuard {
	if retention <= 0 {
		retention = DefaultNonceRetention
	}
	return &NonceGuard{
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

// CheckAndRecord accepts the request tuple exactly once within the
// retention window. On replay or stale timestamp it returns a
// replayed_request error; storage failures surface as storage_error.
func (g *NonceGuard) CheckAndRecord(ctx context.Context, consumerKey, tokenKey, nonce string, timestamp int64) error {
	now := g.now()
	ts := time.Unix(timestamp, 0)

	if ts.Before(now.Add(-g.retention)) {
		return ErrReplayedRequest("timestamp is older than the retention window")
	}
	if ts.After(now.Add(g.retention)) {
		return ErrReplayedRequest("timestamp is too far in the future")
	}

	digest := security.NonceDigest(nonce, consumerKey, tokenKey, timestamp)

	err := g.store.CheckAndRecordNonce(ctx, digest, g.retention)
	if err != nil {
		if errors.Is(err, storage.ErrNonceAlreadyUsed) {
			return ErrReplayedRequest("nonce already used")
		}
		return ErrStorage(err)
	}
	return nil
}
