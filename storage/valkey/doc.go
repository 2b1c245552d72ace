// Package valkey provides a Valkey storage backend for the provider
// library.
//
// Valkey is a high-performance key-value store that is wire-compatible
// with Redis. This package implements all storage interfaces required by
// the provider, making it suitable for production deployments that
// require:
//
//   - Distributed storage for horizontal scaling
//   - Persistence across server restarts
//   - Automatic TTL-based expiration of request tokens and nonces
//   - High availability with clustering
//
// # Implemented Interfaces
//
// The Store type implements all required storage interfaces:
//
//   - [storage.ConsumerStore]: consumer credential management
//   - [storage.TokenStore]: request and access token lifecycle
//   - [storage.NonceStore]: replay protection
//
// # Key Schema
//
// All keys use a configurable prefix (default "oauth1:") to avoid
// conflicts with other applications sharing the same Valkey instance:
//
//	{prefix}consumer:{key}  -> JSON(Consumer)
//	{prefix}request:{key}   -> JSON(RequestToken) (with TTL)
//	{prefix}access:{key}    -> JSON(AccessToken)
//	{prefix}nonce:{digest}  -> "1" (with TTL)
//
// # Atomic Operations
//
// The protocol requires certain operations to be atomic to prevent
// security issues:
//
//   - AtomicAuthorizeRequestToken: a token is authorized at most once
//   - AtomicConsumeRequestToken: an exchange redeems a token at most once
//   - CheckAndRecordNonce: a nonce is accepted at most once
//
// The first two use Lua scripts; the nonce check uses SET NX. This
// provides the same guarantees as the in-memory implementation but with
// distributed storage benefits.
//
// # Configuration
//
// Basic usage:
//
//	store, err := valkey.New(valkey.Config{
//	    Address:   "localhost:6379",
//	    KeyPrefix: "oauth1:",
//	})
package valkey
