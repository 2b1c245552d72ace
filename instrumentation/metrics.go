package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the provider library
type Metrics struct {
	// Flow Metrics
	ConsumerRegistered metric.Int64Counter
	TokenIssued        metric.Int64Counter
	TokenAuthorized    metric.Int64Counter
	TokenDenied        metric.Int64Counter
	TokenExchanged     metric.Int64Counter
	TokenRevoked       metric.Int64Counter

	// Security Metrics
	VerificationTotal metric.Int64Counter
	ReplayDetected    metric.Int64Counter
	RateLimitExceeded metric.Int64Counter

	// Storage Metrics
	StorageOperationTotal    metric.Int64Counter
	StorageOperationDuration metric.Float64Histogram
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	providerMeter := inst.Meter("provider")
	securityMeter := inst.Meter("security")
	storageMeter := inst.Meter("storage")

	// Flow Metrics
	var err error
	m.ConsumerRegistered, err = providerMeter.Int64Counter(
		"oauth.consumer.registered",
		metric.WithDescription("Number of consumers registered"),
		metric.WithUnit("{consumer}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer.registered counter: %w", err)
	}

	m.TokenIssued, err = providerMeter.Int64Counter(
		"oauth.token.issued",
		metric.WithDescription("Number of request tokens issued"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.issued counter: %w", err)
	}

	m.TokenAuthorized, err = providerMeter.Int64Counter(
		"oauth.token.authorized",
		metric.WithDescription("Number of request tokens authorized"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.authorized counter: %w", err)
	}

	m.TokenDenied, err = providerMeter.Int64Counter(
		"oauth.token.denied",
		metric.WithDescription("Number of request tokens denied"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.denied counter: %w", err)
	}

	m.TokenExchanged, err = providerMeter.Int64Counter(
		"oauth.token.exchanged",
		metric.WithDescription("Number of request tokens exchanged for access tokens"),
		metric.WithUnit("{exchange}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.exchanged counter: %w", err)
	}

	m.TokenRevoked, err = providerMeter.Int64Counter(
		"oauth.token.revoked",
		metric.WithDescription("Number of access tokens revoked"),
		metric.WithUnit("{revocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token.revoked counter: %w", err)
	}

	// Security Metrics
	m.VerificationTotal, err = securityMeter.Int64Counter(
		"oauth.verification.total",
		metric.WithDescription("Number of signed-request verifications"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification.total counter: %w", err)
	}

	m.ReplayDetected, err = securityMeter.Int64Counter(
		"oauth.replay.detected",
		metric.WithDescription("Number of replayed requests rejected"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replay.detected counter: %w", err)
	}

	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"oauth.rate_limit.exceeded",
		metric.WithDescription("Number of rate limit violations"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit.exceeded counter: %w", err)
	}

	// Storage Metrics
	m.StorageOperationTotal, err = storageMeter.Int64Counter(
		"storage.operation.total",
		metric.WithDescription("Total number of storage operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.total counter: %w", err)
	}

	m.StorageOperationDuration, err = storageMeter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.duration histogram: %w", err)
	}

	return m, nil
}

// Helper methods for common metric recording patterns

// RecordConsumerRegistered records a consumer registration
func (m *Metrics) RecordConsumerRegistered(ctx context.Context) {
	m.ConsumerRegistered.Add(ctx, 1)
}

// RecordTokenIssued records a request token issuance
func (m *Metrics) RecordTokenIssued(ctx context.Context) {
	m.TokenIssued.Add(ctx, 1)
}

// RecordTokenAuthorized records a request token authorization
func (m *Metrics) RecordTokenAuthorized(ctx context.Context) {
	m.TokenAuthorized.Add(ctx, 1)
}

// RecordTokenDenied records a request token denial
func (m *Metrics) RecordTokenDenied(ctx context.Context) {
	m.TokenDenied.Add(ctx, 1)
}

// RecordTokenExchanged records a request token exchange
func (m *Metrics) RecordTokenExchanged(ctx context.Context) {
	m.TokenExchanged.Add(ctx, 1)
}

// RecordTokenRevoked records an access token revocation
func (m *Metrics) RecordTokenRevoked(ctx context.Context) {
	m.TokenRevoked.Add(ctx, 1)
}

// RecordVerification records a signed-request verification outcome.
// result is "ok" or the error code of the failure.
func (m *Metrics) RecordVerification(ctx context.Context, result string) {
	m.VerificationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

// RecordReplayDetected records a rejected replay attempt
func (m *Metrics) RecordReplayDetected(ctx context.Context) {
	m.ReplayDetected.Add(ctx, 1)
}

// RecordRateLimitExceeded records a rate limit violation
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context) {
	m.RateLimitExceeded.Add(ctx, 1)
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(ctx context.Context, operation, result string, durationMs float64) {
	m.StorageOperationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
	m.StorageOperationDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}
