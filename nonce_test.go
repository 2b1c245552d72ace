package oauth1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signkit/oauth1-provider/storage"
	"github.com/signkit/oauth1-provider/storage/memory"
)

func testGuard(t *testing.T, retention time.Duration, at time.Time) *NonceGuard {
	t.Helper()

	store := memory.New()
	t.Cleanup(store.Stop)

	g := NewNonceGuard(store, retention)
	g.now = func() time.Time { return at }
	return g
}

func TestNonceGuard_DefaultRetention(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	g := NewNonceGuard(store, 0)
	if g.retention != DefaultNonceRetention {
		t.Errorf("retention = %v, want %v", g.retention, DefaultNonceRetention)
	}
}

func TestNonceGuard_CheckAndRecord(t *testing.T) {
	now := time.Now()
	g := testGuard(t, time.Minute, now)
	ctx := context.Background()

	err := g.CheckAndRecord(ctx, "consumer", "token", "nonce-1", now.Unix())
	if err != nil {
		t.Fatalf("first CheckAndRecord failed: %v", err)
	}

	err = g.CheckAndRecord(ctx, "consumer", "token", "nonce-1", now.Unix())
	if err == nil {
		t.Fatal("replayed tuple should be rejected")
	}
	if CodeOf(err) != ErrorCodeReplayedRequest {
		t.Errorf("code = %q, want %q", CodeOf(err), ErrorCodeReplayedRequest)
	}
}

func TestNonceGuard_DistinctTuplesAccepted(t *testing.T) {
	now := time.Now()
	g := testGuard(t, time.Minute, now)
	ctx := context.Background()

	base := []string{"consumer", "token", "nonce-1"}
	if err := g.CheckAndRecord(ctx, base[0], base[1], base[2], now.Unix()); err != nil {
		t.Fatalf("seed CheckAndRecord failed: %v", err)
	}

	variants := []struct {
		name                   string
		consumer, token, nonce string
		timestamp              int64
	}{
		{"different nonce", "consumer", "token", "nonce-2", now.Unix()},
		{"different consumer", "other", "token", "nonce-1", now.Unix()},
		{"different token", "consumer", "other", "nonce-1", now.Unix()},
		{"no token", "consumer", "", "nonce-1", now.Unix()},
		{"different timestamp", "consumer", "token", "nonce-1", now.Unix() + 1},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.CheckAndRecord(ctx, tt.consumer, tt.token, tt.nonce, tt.timestamp); err != nil {
				t.Errorf("CheckAndRecord failed: %v", err)
			}
		})
	}
}

func TestNonceGuard_TimestampWindow(t *testing.T) {
	now := time.Unix(time.Now().Unix(), 0)
	retention := time.Minute
	g := testGuard(t, retention, now)
	ctx := context.Background()

	tests := []struct {
		name      string
		timestamp int64
		wantErr   bool
	}{
		{"current", now.Unix(), false},
		{"edge of past window", now.Add(-retention).Unix(), false},
		{"edge of future window", now.Add(retention).Unix(), false},
		{"too old", now.Add(-retention - 2*time.Second).Unix(), true},
		{"too far in the future", now.Add(retention + 2*time.Second).Unix(), true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckAndRecord(ctx, "consumer", "", string(rune('a'+i)), tt.timestamp)
			if tt.wantErr {
				if CodeOf(err) != ErrorCodeReplayedRequest {
					t.Errorf("code = %q, want %q", CodeOf(err), ErrorCodeReplayedRequest)
				}
				return
			}
			if err != nil {
				t.Errorf("CheckAndRecord failed: %v", err)
			}
		})
	}
}

type failingNonceStore struct{}

func (failingNonceStore) CheckAndRecordNonce(ctx context.Context, digest string, ttl time.Duration) error {
	return errors.New("connection refused")
}

var _ storage.NonceStore = failingNonceStore{}

func TestNonceGuard_StorageFailure(t *testing.T) {
	g := NewNonceGuard(failingNonceStore{}, time.Minute)

	err := g.CheckAndRecord(context.Background(), "consumer", "", "nonce", time.Now().Unix())
	if CodeOf(err) != ErrorCodeStorageError {
		t.Errorf("code = %q, want %q", CodeOf(err), ErrorCodeStorageError)
	}
}
