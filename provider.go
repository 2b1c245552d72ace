// Package oauth1 implements the provider side of an OAuth 1.0a
// authorization flow: consumer registration, request-token issuance, the
// three-legged authorization state machine, access-token issuance, and
// verification of signed requests with nonce/timestamp replay protection.
//
// The package owns no HTTP routing and no session handling; it exposes
// typed operations for the three provider endpoints plus a single Verify
// entry point for authenticating API calls. Persistence is pluggable via
// the storage interfaces, signature checking via the signature.Method
// interface.
package oauth1

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/signkit/oauth1-provider/instrumentation"
	"github.com/signkit/oauth1-provider/security"
	"github.com/signkit/oauth1-provider/signature"
	"github.com/signkit/oauth1-provider/storage"
)

// Provider implements the OAuth 1.0a provider core. All shared state
// lives in the storage backends; a Provider is safe for concurrent use
// by any number of request-serving goroutines.
type Provider struct {
	consumers storage.ConsumerStore
	tokens    storage.TokenStore
	guard     *NonceGuard

	methods map[string]signature.Method

	config *Config
	logger *slog.Logger

	auditor             *security.Auditor
	registrationLimiter *security.RateLimiter
	failureLimiter      *security.RateLimiter

	inst   *instrumentation.Instrumentation
	tracer trace.Tracer
}

// New creates a new provider. The three stores may be a single backend
// implementing storage.Store or separate backends per concern.
//
// HMAC-SHA1 and PLAINTEXT signature methods are registered by default;
// PLAINTEXT is only accepted over an encrypted transport unless
// explicitly configured otherwise.
func New(consumers storage.ConsumerStore, tokens storage.TokenStore, nonces storage.NonceStore, cfg *Config) (*Provider, error) {
	if consumers == nil {
		return nil, fmt.Errorf("consumer store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if nonces == nil {
		return nil, fmt.Errorf("nonce store is required")
	}

	cfg = applyDefaults(cfg)

	p := &Provider{
		methods: make(map[string]signature.Method),
		config:  cfg,
		logger:  cfg.Logger,
		auditor: security.NewAuditor(cfg.Logger, cfg.Security.AuditEnabled),
	}

	// Backend calls go through the observing wrappers so storage
	// operation metrics cover every store uniformly.
	p.consumers = observedConsumerStore{p: p, inner: consumers}
	p.tokens = observedTokenStore{p: p, inner: tokens}
	p.guard = NewNonceGuard(observedNonceStore{p: p, inner: nonces}, cfg.NonceRetention)

	p.RegisterSignatureMethod(signature.HMACSHA1{})
	p.RegisterSignatureMethod(signature.Plaintext{})

	if cfg.RateLimit.RegistrationRate > 0 {
		p.registrationLimiter = security.NewRateLimiter(
			cfg.RateLimit.RegistrationRate, cfg.RateLimit.RegistrationBurst, cfg.Logger)
	}
	if cfg.RateLimit.FailureRate > 0 {
		p.failureLimiter = security.NewRateLimiter(
			cfg.RateLimit.FailureRate, cfg.RateLimit.FailureBurst, cfg.Logger)
	}

	return p, nil
}

// RegisterSignatureMethod makes a signature method available for
// verification, replacing any prior method of the same name.
func (p *Provider) RegisterSignatureMethod(m signature.Method) {
	p.methods[m.Name()] = m
}

// SetAuditor replaces the security auditor.
func (p *Provider) SetAuditor(aud *security.Auditor) {
	p.auditor = aud
}

// SetInstrumentation attaches OpenTelemetry instrumentation to the
// provider. Passing nil disables it.
func (p *Provider) SetInstrumentation(inst *instrumentation.Instrumentation) {
	p.inst = inst
	if inst != nil {
		p.tracer = inst.Tracer("provider")
	} else {
		p.tracer = nil
	}
}

// Close stops the provider's background goroutines (rate limiter sweeps).
// Storage backends are owned by the caller and are not closed here.
func (p *Provider) Close() {
	if p.registrationLimiter != nil {
		p.registrationLimiter.Stop()
	}
	if p.failureLimiter != nil {
		p.failureLimiter.Stop()
	}
}

// startSpan starts a tracing span when instrumentation is attached.
func (p *Provider) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if p.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return p.tracer.Start(ctx, "provider."+operation)
}

// metrics returns the metric instruments, or nil when instrumentation is
// not attached. Callers must nil-check.
func (p *Provider) metrics() *instrumentation.Metrics {
	if p.inst == nil {
		return nil
	}
	return p.inst.Metrics()
}

// storageFailure wraps a backend failure, keeping the cause for
// errors.Is while presenting the storage_error code to callers.
func (p *Provider) storageFailure(op string, err error) error {
	p.logger.Error("Storage operation failed", "operation", op, "error", err)
	return ErrStorage(fmt.Errorf("%s: %w", op, err))
}

// isNotFound collapses the two storage conditions that both read as "no
// such live token": the record is gone, or it outlived its retention.
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrTokenNotFound) || errors.Is(err, storage.ErrTokenExpired)
}
