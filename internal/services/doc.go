// Package services defines shared utilities consumed by the acquisition
// workflow and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, pipeline step names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs permission vs pipeline step) uniform
//     across packages.
//   - The Retryable predicate consumed by HTTP client backoff policies.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
