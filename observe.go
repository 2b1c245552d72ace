package oauth1

import (
	"context"
	"time"

	"github.com/signkit/oauth1-provider/storage"
)

// The observed* wrappers time every backend call the provider makes and
// feed the storage operation metrics. New installs them around the
// caller's stores; with no instrumentation attached they cost a clock
// read per call.

// Interface guards
var (
	_ storage.ConsumerStore = observedConsumerStore{}
	_ storage.TokenStore    = observedTokenStore{}
	_ storage.NonceStore    = observedNonceStore{}
)

// observeStorage records the outcome and latency of one backend call.
func (p *Provider) observeStorage(ctx context.Context, operation string, err error, start time.Time) {
	m := p.metrics()
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RecordStorageOperation(ctx, operation, result, float64(time.Since(start).Milliseconds()))
}

type observedConsumerStore struct {
	p     *Provider
	inner storage.ConsumerStore
}

func (o observedConsumerStore) SaveConsumer(ctx context.Context, consumer *storage.Consumer) error {
	start := time.Now()
	err := o.inner.SaveConsumer(ctx, consumer)
	o.p.observeStorage(ctx, "save_consumer", err, start)
	return err
}

func (o observedConsumerStore) GetConsumer(ctx context.Context, key string) (*storage.Consumer, error) {
	start := time.Now()
	consumer, err := o.inner.GetConsumer(ctx, key)
	o.p.observeStorage(ctx, "get_consumer", err, start)
	return consumer, err
}

func (o observedConsumerStore) DeleteConsumer(ctx context.Context, key string) error {
	start := time.Now()
	err := o.inner.DeleteConsumer(ctx, key)
	o.p.observeStorage(ctx, "delete_consumer", err, start)
	return err
}

type observedTokenStore struct {
	p     *Provider
	inner storage.TokenStore
}

func (o observedTokenStore) SaveRequestToken(ctx context.Context, token *storage.RequestToken) error {
	start := time.Now()
	err := o.inner.SaveRequestToken(ctx, token)
	o.p.observeStorage(ctx, "save_request_token", err, start)
	return err
}

func (o observedTokenStore) GetRequestToken(ctx context.Context, key string) (*storage.RequestToken, error) {
	start := time.Now()
	token, err := o.inner.GetRequestToken(ctx, key)
	o.p.observeStorage(ctx, "get_request_token", err, start)
	return token, err
}

func (o observedTokenStore) DeleteRequestToken(ctx context.Context, key string) error {
	start := time.Now()
	err := o.inner.DeleteRequestToken(ctx, key)
	o.p.observeStorage(ctx, "delete_request_token", err, start)
	return err
}

func (o observedTokenStore) AtomicAuthorizeRequestToken(ctx context.Context, key, userID, verifier string) (*storage.RequestToken, error) {
	start := time.Now()
	token, err := o.inner.AtomicAuthorizeRequestToken(ctx, key, userID, verifier)
	o.p.observeStorage(ctx, "authorize_request_token", err, start)
	return token, err
}

func (o observedTokenStore) SetRequestTokenCallback(ctx context.Context, key, callback string) (*storage.RequestToken, error) {
	start := time.Now()
	token, err := o.inner.SetRequestTokenCallback(ctx, key, callback)
	o.p.observeStorage(ctx, "set_request_token_callback", err, start)
	return token, err
}

func (o observedTokenStore) AtomicConsumeRequestToken(ctx context.Context, key string) (*storage.RequestToken, error) {
	start := time.Now()
	token, err := o.inner.AtomicConsumeRequestToken(ctx, key)
	o.p.observeStorage(ctx, "consume_request_token", err, start)
	return token, err
}

func (o observedTokenStore) SaveAccessToken(ctx context.Context, token *storage.AccessToken) error {
	start := time.Now()
	err := o.inner.SaveAccessToken(ctx, token)
	o.p.observeStorage(ctx, "save_access_token", err, start)
	return err
}

func (o observedTokenStore) GetAccessToken(ctx context.Context, key string) (*storage.AccessToken, error) {
	start := time.Now()
	token, err := o.inner.GetAccessToken(ctx, key)
	o.p.observeStorage(ctx, "get_access_token", err, start)
	return token, err
}

func (o observedTokenStore) DeleteAccessToken(ctx context.Context, key string) error {
	start := time.Now()
	err := o.inner.DeleteAccessToken(ctx, key)
	o.p.observeStorage(ctx, "delete_access_token", err, start)
	return err
}

type observedNonceStore struct {
	p     *Provider
	inner storage.NonceStore
}

func (o observedNonceStore) CheckAndRecordNonce(ctx context.Context, digest string, ttl time.Duration) error {
	start := time.Now()
	err := o.inner.CheckAndRecordNonce(ctx, digest, ttl)
	o.p.observeStorage(ctx, "check_nonce", err, start)
	return err
}
