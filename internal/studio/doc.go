// Package studio serves the HTTP API used by the browser recording studio.
//
// The studio posts recordings, narration edits and generation requests for
// single slides and reads per-deck status listings. Every write goes through
// the workflow service, so the store backend, manifest handling and
// precondition semantics are the same as for the CLI.
//
// Requests carry an X-Request-Id (generated when absent) that is threaded
// into the request context and every log line. When a studio secret is
// configured, API routes require a matching X-Studio-Secret header. Failed
// requests answer with an api.ErrorEnvelope whose code is the services.Kind
// of the underlying error.
package studio
