// Package workflow implements the operations that keep narration text, audio
// objects and the audio manifest consistent.
//
// Every operation validates identifiers before touching the store, writes
// content objects before the manifest, and reports a manifest failure that
// follows a successful content write as a warning on the result rather than
// an error. Writes that update existing objects carry the version read
// earlier, so a concurrent writer surfaces as store.ErrVersionConflict and
// the caller re-reads before retrying. Nothing in this package retries on its
// own; batch generation only spaces provider calls apart.
package workflow
