// Package storage defines interfaces for persisting OAuth 1.0a consumers,
// tokens, and nonce records. It supports various backend implementations
// including in-memory and Valkey/Redis.
//
// The storage package defines the core storage interfaces used throughout
// the provider:
//   - ConsumerStore: Manages registered consumer key/secret pairs
//   - TokenStore: Manages request and access tokens, including the atomic
//     authorize and consume operations the three-legged flow depends on
//   - NonceStore: Manages replay-guard records with bounded retention
//
// Implementations are provided in subpackages:
//   - storage/memory: In-memory storage for development and testing
//   - storage/valkey: Valkey/Redis-compatible distributed storage for
//     production
package storage
