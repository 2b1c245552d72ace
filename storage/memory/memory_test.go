package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/signkit/oauth1-provider/storage"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	t.Cleanup(s.Stop)
	return s
}

func testRequestToken(key string) *storage.RequestToken {
	now := time.Now()
	return &storage.RequestToken{
		Key:         key,
		Secret:      "request-secret",
		ConsumerKey: "consumer-key",
		Callback:    "https://client.example/cb",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

func TestStore_ConsumerLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	consumer := &storage.Consumer{
		Key:       "consumer-key",
		Secret:    "consumer-secret",
		CreatedAt: time.Now(),
	}

	if err := s.SaveConsumer(ctx, consumer); err != nil {
		t.Fatalf("SaveConsumer failed: %v", err)
	}

	got, err := s.GetConsumer(ctx, consumer.Key)
	if err != nil {
		t.Fatalf("GetConsumer failed: %v", err)
	}
	if got.Secret != consumer.Secret {
		t.Errorf("Secret = %q, want %q", got.Secret, consumer.Secret)
	}

	// Returned record is a copy; mutating it must not affect the store
	got.Secret = "mutated"
	again, err := s.GetConsumer(ctx, consumer.Key)
	if err != nil {
		t.Fatalf("GetConsumer failed: %v", err)
	}
	if again.Secret != consumer.Secret {
		t.Error("store record was mutated through a returned copy")
	}

	if err := s.DeleteConsumer(ctx, consumer.Key); err != nil {
		t.Fatalf("DeleteConsumer failed: %v", err)
	}

	if _, err := s.GetConsumer(ctx, consumer.Key); !errors.Is(err, storage.ErrConsumerNotFound) {
		t.Errorf("GetConsumer after delete = %v, want ErrConsumerNotFound", err)
	}
}

func TestStore_SaveConsumer_Invalid(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveConsumer(ctx, nil); err == nil {
		t.Error("SaveConsumer(nil) should fail")
	}
	if err := s.SaveConsumer(ctx, &storage.Consumer{}); err == nil {
		t.Error("SaveConsumer with empty key should fail")
	}
}

func TestStore_RequestTokenLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_token1")

	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	got, err := s.GetRequestToken(ctx, token.Key)
	if err != nil {
		t.Fatalf("GetRequestToken failed: %v", err)
	}
	if got.ConsumerKey != token.ConsumerKey {
		t.Errorf("ConsumerKey = %q, want %q", got.ConsumerKey, token.ConsumerKey)
	}
	if got.Authorized {
		t.Error("new request token should not be authorized")
	}

	if err := s.DeleteRequestToken(ctx, token.Key); err != nil {
		t.Fatalf("DeleteRequestToken failed: %v", err)
	}

	if _, err := s.GetRequestToken(ctx, token.Key); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("GetRequestToken after delete = %v, want ErrTokenNotFound", err)
	}
}

func TestStore_GetRequestToken_Expired(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_expired")
	token.ExpiresAt = time.Now().Add(-time.Minute)

	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	if _, err := s.GetRequestToken(ctx, token.Key); !errors.Is(err, storage.ErrTokenExpired) {
		t.Errorf("GetRequestToken = %v, want ErrTokenExpired", err)
	}
}

func TestStore_AtomicAuthorizeRequestToken(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_auth")
	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	authorized, err := s.AtomicAuthorizeRequestToken(ctx, token.Key, "user-1", "verifier1")
	if err != nil {
		t.Fatalf("AtomicAuthorizeRequestToken failed: %v", err)
	}
	if !authorized.Authorized {
		t.Error("token should be authorized")
	}
	if authorized.UserID != "user-1" || authorized.Verifier != "verifier1" {
		t.Errorf("got UserID=%q Verifier=%q, want user-1/verifier1", authorized.UserID, authorized.Verifier)
	}

	if _, err := s.AtomicAuthorizeRequestToken(ctx, token.Key, "user-2", "verifier2"); !errors.Is(err, storage.ErrTokenAlreadyAuthorized) {
		t.Errorf("second authorize = %v, want ErrTokenAlreadyAuthorized", err)
	}

	// The first verifier must survive the failed second attempt
	got, err := s.GetRequestToken(ctx, token.Key)
	if err != nil {
		t.Fatalf("GetRequestToken failed: %v", err)
	}
	if got.Verifier != "verifier1" {
		t.Errorf("Verifier = %q, want verifier1", got.Verifier)
	}
}

func TestStore_AtomicAuthorizeRequestToken_Concurrent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_race")
	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	const goroutines = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AtomicAuthorizeRequestToken(ctx, token.Key, "user", "verifier"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	if successes != 1 {
		t.Errorf("concurrent authorize succeeded %d times, want exactly 1", successes)
	}
}

func TestStore_SetRequestTokenCallback_FirstWriteWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_cb")
	token.Callback = ""
	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	got, err := s.SetRequestTokenCallback(ctx, token.Key, "https://first.example/cb")
	if err != nil {
		t.Fatalf("SetRequestTokenCallback failed: %v", err)
	}
	if got.Callback != "https://first.example/cb" {
		t.Errorf("Callback = %q, want first write", got.Callback)
	}

	got, err = s.SetRequestTokenCallback(ctx, token.Key, "https://second.example/cb")
	if err != nil {
		t.Fatalf("SetRequestTokenCallback failed: %v", err)
	}
	if got.Callback != "https://first.example/cb" {
		t.Errorf("Callback = %q, want first write preserved", got.Callback)
	}
}

func TestStore_SetRequestTokenCallback_IssuanceCallbackKept(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_cb2")
	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	got, err := s.SetRequestTokenCallback(ctx, token.Key, "https://late.example/cb")
	if err != nil {
		t.Fatalf("SetRequestTokenCallback failed: %v", err)
	}
	if got.Callback != token.Callback {
		t.Errorf("Callback = %q, want issuance callback %q", got.Callback, token.Callback)
	}
}

func TestStore_AtomicConsumeRequestToken(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_consume")
	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	consumed, err := s.AtomicConsumeRequestToken(ctx, token.Key)
	if err != nil {
		t.Fatalf("AtomicConsumeRequestToken failed: %v", err)
	}
	if consumed.Key != token.Key {
		t.Errorf("Key = %q, want %q", consumed.Key, token.Key)
	}

	if _, err := s.AtomicConsumeRequestToken(ctx, token.Key); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("second consume = %v, want ErrTokenNotFound", err)
	}
}

func TestStore_AtomicConsumeRequestToken_Concurrent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := testRequestToken("rt_consume_race")
	if err := s.SaveRequestToken(ctx, token); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}

	const goroutines = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AtomicConsumeRequestToken(ctx, token.Key); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	if successes != 1 {
		t.Errorf("concurrent consume succeeded %d times, want exactly 1", successes)
	}
}

func TestStore_AccessTokenLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	token := &storage.AccessToken{
		Key:         "at_token1",
		Secret:      "access-secret",
		ConsumerKey: "consumer-key",
		UserID:      "user-42",
		CreatedAt:   time.Now(),
	}

	if err := s.SaveAccessToken(ctx, token); err != nil {
		t.Fatalf("SaveAccessToken failed: %v", err)
	}

	got, err := s.GetAccessToken(ctx, token.Key)
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if got.UserID != token.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, token.UserID)
	}

	if err := s.DeleteAccessToken(ctx, token.Key); err != nil {
		t.Fatalf("DeleteAccessToken failed: %v", err)
	}

	if _, err := s.GetAccessToken(ctx, token.Key); !errors.Is(err, storage.ErrTokenNotFound) {
		t.Errorf("GetAccessToken after delete = %v, want ErrTokenNotFound", err)
	}
}

func TestStore_CheckAndRecordNonce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CheckAndRecordNonce(ctx, "digest1", time.Hour); err != nil {
		t.Fatalf("first CheckAndRecordNonce failed: %v", err)
	}

	if err := s.CheckAndRecordNonce(ctx, "digest1", time.Hour); !errors.Is(err, storage.ErrNonceAlreadyUsed) {
		t.Errorf("second CheckAndRecordNonce = %v, want ErrNonceAlreadyUsed", err)
	}

	if err := s.CheckAndRecordNonce(ctx, "digest2", time.Hour); err != nil {
		t.Errorf("CheckAndRecordNonce with new digest failed: %v", err)
	}
}

func TestStore_CheckAndRecordNonce_ExpiredDigestReusable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// A digest whose retention window has passed may be recorded again.
	// Retention is exact: no clock skew grace extends the replay window.
	if err := s.CheckAndRecordNonce(ctx, "digest", -time.Second); err != nil {
		t.Fatalf("first CheckAndRecordNonce failed: %v", err)
	}

	if err := s.CheckAndRecordNonce(ctx, "digest", time.Hour); err != nil {
		t.Errorf("CheckAndRecordNonce after expiry = %v, want nil", err)
	}
}

func TestStore_CheckAndRecordNonce_Concurrent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	const goroutines = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.CheckAndRecordNonce(ctx, "shared-digest", time.Hour); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	if successes != 1 {
		t.Errorf("concurrent nonce record succeeded %d times, want exactly 1", successes)
	}
}

func TestStore_Cleanup(t *testing.T) {
	s := NewWithInterval(10 * time.Millisecond)
	defer s.Stop()
	ctx := context.Background()

	expired := testRequestToken("rt_sweep")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	if err := s.SaveRequestToken(ctx, expired); err != nil {
		t.Fatalf("SaveRequestToken failed: %v", err)
	}
	if err := s.CheckAndRecordNonce(ctx, "stale", -time.Minute); err != nil {
		t.Fatalf("CheckAndRecordNonce failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	s.mu.RLock()
	_, tokenPresent := s.requestTokens[expired.Key]
	_, noncePresent := s.nonces["stale"]
	s.mu.RUnlock()

	if tokenPresent {
		t.Error("expired request token should have been swept")
	}
	if noncePresent {
		t.Error("expired nonce should have been swept")
	}
}

func TestStore_StopIdempotent(t *testing.T) {
	s := New()
	s.Stop()
	s.Stop() // must not panic
}
