// Package manifest models the audio manifest: the per-slide record of who
// produced each audio object and which narration text it was produced from.
//
// The manifest is a single JSON object stored next to the audio. Entries are
// read in either the structured form or the legacy bare-fingerprint form and
// always written back structured. Top-level keys other than "generated" are
// preserved across rewrites.
package manifest
