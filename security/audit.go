// Package security provides security primitives for the OAuth 1.0a
// provider: credential generation, nonce digests, expiry checks with clock
// skew tolerance, rate limiting, and audit logging.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Auditor handles security event logging with PII protection.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	ID          string
	Type        string
	UserID      string
	ConsumerKey string
	Details     map[string]any
	Timestamp   time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.ID = uuid.NewString()
	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_id", event.ID,
		"event_type", event.Type,
		"user_id_hash", hashForLogging(event.UserID),
		"consumer_key", event.ConsumerKey,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogConsumerRegistered logs the creation of a consumer key pair
func (a *Auditor) LogConsumerRegistered(consumerKey string) {
	a.LogEvent(Event{
		Type:        "consumer_registered",
		ConsumerKey: consumerKey,
	})
}

// LogConsumerDeleted logs the deletion of a consumer key pair
func (a *Auditor) LogConsumerDeleted(consumerKey string) {
	a.LogEvent(Event{
		Type:        "consumer_deleted",
		ConsumerKey: consumerKey,
	})
}

// LogTokenIssued logs the issuance of a request token
func (a *Auditor) LogTokenIssued(consumerKey, tokenKey string, callbackConfirmed bool) {
	a.LogEvent(Event{
		Type:        "request_token_issued",
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"token_key":          tokenKey,
			"callback_confirmed": callbackConfirmed,
		},
	})
}

// LogTokenAuthorized logs a grant decision by the resource owner
func (a *Auditor) LogTokenAuthorized(consumerKey, tokenKey, userID string) {
	a.LogEvent(Event{
		Type:        "request_token_authorized",
		UserID:      userID,
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"token_key": tokenKey,
		},
	})
}

// LogTokenDenied logs a deny decision by the resource owner
func (a *Auditor) LogTokenDenied(consumerKey, tokenKey string) {
	a.LogEvent(Event{
		Type:        "request_token_denied",
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"token_key": tokenKey,
		},
	})
}

// LogTokenExchanged logs a request-token-for-access-token exchange
func (a *Auditor) LogTokenExchanged(consumerKey, requestTokenKey, userID string) {
	a.LogEvent(Event{
		Type:        "request_token_exchanged",
		UserID:      userID,
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"request_token_key": requestTokenKey,
		},
	})
}

// LogTokenRevoked logs explicit revocation of an access token
func (a *Auditor) LogTokenRevoked(consumerKey, tokenKey string) {
	a.LogEvent(Event{
		Type:        "access_token_revoked",
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"token_key": tokenKey,
		},
	})
}

// LogAuthFailure logs a request verification failure
func (a *Auditor) LogAuthFailure(consumerKey, tokenKey, reason string) {
	a.LogEvent(Event{
		Type:        "auth_failure",
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"token_key": tokenKey,
			"reason":    reason,
		},
	})
}

// LogReplayDetected logs a nonce replay or stale timestamp rejection
func (a *Auditor) LogReplayDetected(consumerKey, tokenKey string, timestamp int64) {
	a.LogEvent(Event{
		Type:        "replay_detected",
		ConsumerKey: consumerKey,
		Details: map[string]any{
			"token_key": tokenKey,
			"timestamp": timestamp,
		},
	})
}

// LogRateLimitExceeded logs a rate limit violation
func (a *Auditor) LogRateLimitExceeded(identifier string) {
	a.LogEvent(Event{
		Type: "rate_limit_exceeded",
		Details: map[string]any{
			"identifier_hash": hashForLogging(identifier),
		},
	})
}

// hashForLogging creates a truncated SHA-256 hash of a value for logging.
// Allows correlation across events without recording the raw value.
func hashForLogging(value string) string {
	if value == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
