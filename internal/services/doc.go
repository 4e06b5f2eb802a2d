// Package services defines shared utilities consumed by the synchronization
// workflows and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp workflow names, slide keys, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     workflow taxonomy (validation, store, transcode, provider, corrupt
//     manifest, slide not found).
//   - Retryable and Kind, which translate a wrapped error into the retry
//     guidance and wire codes callers surface to users.
//
// Use these helpers when wiring new workflow steps so error reporting stays
// uniform across the CLI and the studio API.
package services
