package oauth1

import (
	"log/slog"
	"time"

	"github.com/signkit/oauth1-provider/security"
)

const (
	// DefaultRequestTokenTTL is how long an unredeemed request token
	// survives, regardless of its authorization state.
	DefaultRequestTokenTTL = 24 * time.Hour

	// DefaultNonceRetention is the replay-guard window. Requests with a
	// timestamp outside this window are rejected as replayed, because a
	// stale timestamp can no longer be distinguished from a replay.
	DefaultNonceRetention = time.Hour
)

// Config holds the provider configuration
type Config struct {
	// RequestTokenTTL is the lifetime of issued request tokens.
	// Default: 24 hours
	RequestTokenTTL time.Duration

	// NonceRetention is the replay-guard window for nonce records and
	// timestamps. Default: 1 hour
	NonceRetention time.Duration

	// VerifierLength is the length of generated one-time verifiers.
	// Values below 8 are raised to 8. Default: 8
	VerifierLength int

	// RateLimit holds rate limiting configuration
	RateLimit RateLimitConfig

	// Security holds security settings (secure by default)
	Security SecurityConfig

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RegistrationRate is consumer registrations per second allowed.
	// Zero disables limiting.
	RegistrationRate int

	// RegistrationBurst is the maximum registration burst size.
	RegistrationBurst int

	// FailureRate is verification attempts per second allowed per
	// consumer key. Every Verify call counts against it, successful or
	// not, so the limiter cannot be sidestepped by interleaving valid
	// requests. Zero disables.
	FailureRate int

	// FailureBurst is the maximum verification burst size per consumer
	// key.
	FailureBurst int
}

// SecurityConfig holds security settings (secure by default)
type SecurityConfig struct {
	// AllowPlaintextWithoutTLS permits PLAINTEXT signatures over an
	// unencrypted transport.
	// WARNING: The signing key travels in the clear. Only for tests.
	AllowPlaintextWithoutTLS bool

	// AuditEnabled turns on security audit logging.
	AuditEnabled bool
}

// applyDefaults fills in zero values with secure defaults.
func applyDefaults(cfg *Config) *Config {
	if cfg == nil {
		cfg = &Config{}
	}

	out := *cfg

	if out.RequestTokenTTL <= 0 {
		out.RequestTokenTTL = DefaultRequestTokenTTL
	}
	if out.NonceRetention <= 0 {
		out.NonceRetention = DefaultNonceRetention
	}
	if out.VerifierLength < security.MinVerifierLength {
		out.VerifierLength = security.MinVerifierLength
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}

	return &out
}
