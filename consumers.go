package oauth1

import (
	"context"
	"errors"
	"time"

	"github.com/signkit/oauth1-provider/security"
	"github.com/signkit/oauth1-provider/storage"
)

// registrationLimiterKey is the identifier under which consumer
// registrations are rate limited. Registration has no authenticated
// caller, so the budget is global.
const registrationLimiterKey = "consumer_registration"

// RegisterConsumer generates a fresh key/secret pair and persists it.
// The secret is returned exactly once, here; it is never transmitted
// again.
func (p *Provider) RegisterConsumer(ctx context.Context) (*storage.Consumer, error) {
	ctx, span := p.startSpan(ctx, "register_consumer")
	defer span.End()

	if p.registrationLimiter != nil && !p.registrationLimiter.Allow(registrationLimiterKey) {
		p.auditor.LogRateLimitExceeded(registrationLimiterKey)
		if m := p.metrics(); m != nil {
			m.RecordRateLimitExceeded(ctx)
		}
		return nil, ErrRateLimitExceeded("consumer registration rate exceeded")
	}

	consumer := &storage.Consumer{
		Key:       security.GenerateConsumerKey(),
		Secret:    security.GenerateSecret(),
		CreatedAt: time.Now(),
	}

	if err := p.consumers.SaveConsumer(ctx, consumer); err != nil {
		return nil, p.storageFailure("save consumer", err)
	}

	p.auditor.LogConsumerRegistered(consumer.Key)
	if m := p.metrics(); m != nil {
		m.RecordConsumerRegistered(ctx)
	}
	p.logger.Info("Registered consumer", "consumer_key", consumer.Key)

	return consumer, nil
}

// Consumer looks up a consumer by key.
func (p *Provider) Consumer(ctx context.Context, key string) (*storage.Consumer, error) {
	consumer, err := p.consumers.GetConsumer(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrConsumerNotFound) {
			return nil, ErrUnknownConsumer("consumer not found")
		}
		return nil, p.storageFailure("get consumer", err)
	}
	return consumer, nil
}

// DeleteConsumer removes a consumer. Tokens bound to it are not swept;
// they become invalid on their next lookup, so revocation takes effect
// on the very next request.
func (p *Provider) DeleteConsumer(ctx context.Context, key string) error {
	ctx, span := p.startSpan(ctx, "delete_consumer")
	defer span.End()

	if err := p.consumers.DeleteConsumer(ctx, key); err != nil {
		return p.storageFailure("delete consumer", err)
	}

	p.auditor.LogConsumerDeleted(key)
	p.logger.Info("Deleted consumer", "consumer_key", key)
	return nil
}
