package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/signkit/oauth1-provider/storage"
)

// ============================================================
// ConsumerStore Implementation
// ============================================================

// consumerJSON is the stored representation of a consumer. Timestamps are
// unix seconds so Lua scripts and other clients can read them.
type consumerJSON struct {
	Key       string `json:"key"`
	Secret    string `json:"secret"`
	CreatedAt int64  `json:"created_at"`
}

func toConsumerJSON(c *storage.Consumer) *consumerJSON {
	return &consumerJSON{
		Key:       c.Key,
		Secret:    c.Secret,
		CreatedAt: c.CreatedAt.Unix(),
	}
}

func fromConsumerJSON(j *consumerJSON) *storage.Consumer {
	return &storage.Consumer{
		Key:       j.Key,
		Secret:    j.Secret,
		CreatedAt: time.Unix(j.CreatedAt, 0),
	}
}

// SaveConsumer saves a registered consumer
func (s *Store) SaveConsumer(ctx context.Context, consumer *storage.Consumer) error {
	if consumer == nil || consumer.Key == "" {
		return fmt.Errorf("invalid consumer")
	}

	data, err := json.Marshal(toConsumerJSON(consumer))
	if err != nil {
		return fmt.Errorf("failed to marshal consumer: %w", err)
	}

	key := s.consumerKey(consumer.Key)

	if err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to save consumer: %w", err)
	}

	s.logger.Debug("Saved consumer", "consumer_key", consumer.Key)
	return nil
}

// GetConsumer retrieves a consumer by key
func (s *Store) GetConsumer(ctx context.Context, key string) (*storage.Consumer, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.consumerKey(key)).Build()).ToString()
	if err != nil {
		if isNilError(err) {
			// Generic error prevents consumer enumeration
			return nil, storage.ErrConsumerNotFound
		}
		return nil, fmt.Errorf("failed to get consumer: %w", err)
	}

	var j consumerJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal consumer: %w", err)
	}

	return fromConsumerJSON(&j), nil
}

// DeleteConsumer removes a consumer. Its tokens are not swept; they
// become unusable because token resolution requires a live consumer.
func (s *Store) DeleteConsumer(ctx context.Context, key string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.consumerKey(key)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete consumer: %w", err)
	}

	s.logger.Debug("Deleted consumer", "consumer_key", key)
	return nil
}
