// Package instrumentation provides OpenTelemetry (OTEL) instrumentation
// for the provider library.
//
// Enable it and pass it to the provider:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "my-oauth-service",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	provider.SetInstrumentation(inst)
//
// # Available Metrics
//
// Flow:
//   - oauth.consumer.registered - Consumers registered
//   - oauth.token.issued - Request tokens issued
//   - oauth.token.authorized - Request tokens authorized
//   - oauth.token.denied - Request tokens denied
//   - oauth.token.exchanged - Request tokens exchanged for access tokens
//   - oauth.token.revoked - Access tokens revoked
//
// Security:
//   - oauth.verification.total{result} - Signed-request verifications
//   - oauth.replay.detected - Replayed requests rejected
//   - oauth.rate_limit.exceeded - Rate limit violations
//
// Storage:
//   - storage.operation.total{operation, result} - Storage operations
//   - storage.operation.duration{operation} - Operation duration in milliseconds
//
// When instrumentation is not configured or disabled, no-op providers are
// used and recording has zero overhead. All operations are safe for
// concurrent use.
//
// Never record credential material (token secrets, consumer secrets,
// verifiers) in metric attributes or span attributes; only metadata.
package instrumentation
